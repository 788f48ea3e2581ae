package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/ternarybob/pitwall/internal/dom"
)

const pollInterval = 100 * time.Millisecond

// Condition is a named predicate evaluated in the page.
type Condition struct {
	Description string
	Expr        string
}

func (c Condition) String() string { return c.Description }

func Visible(selector string) Condition {
	return Condition{Description: selector + " is visible", Expr: dom.VisibleExpr(selector)}
}

func Hidden(selector string) Condition {
	return Condition{Description: selector + " is hidden", Expr: dom.HiddenExpr(selector)}
}

func Attached(selector string) Condition {
	return Condition{Description: selector + " is attached", Expr: dom.AttachedExpr(selector)}
}

func AttributeEquals(selector, name, value string) Condition {
	return Condition{
		Description: fmt.Sprintf("%s[%s] == %q", selector, name, value),
		Expr:        dom.AttributeEqualsExpr(selector, name, value),
	}
}

func HasClass(selector, class string) Condition {
	return Condition{
		Description: fmt.Sprintf("%s has class %q", selector, class),
		Expr:        dom.HasClassExpr(selector, class),
	}
}

func TextEquals(selector, text string) Condition {
	return Condition{
		Description: fmt.Sprintf("%s text == %q", selector, text),
		Expr:        dom.TextEqualsExpr(selector, text),
	}
}

// TextNotEqual is satisfied once the element exists and shows something other than placeholder.
func TextNotEqual(selector, placeholder string) Condition {
	return Condition{
		Description: fmt.Sprintf("%s text != %q", selector, placeholder),
		Expr:        dom.TextNotEqualExpr(selector, placeholder),
	}
}

func BodyContains(text string) Condition {
	return Condition{Description: fmt.Sprintf("page contains %q", text), Expr: dom.BodyContainsExpr(text)}
}

func Function(description, expr string) Condition {
	return Condition{Description: description, Expr: expr}
}

// ConditionError reports a condition that was not met in time.
type ConditionError struct {
	Condition Condition
	Timeout   time.Duration
	Err       error
}

func (e *ConditionError) Error() string {
	if e.Err != nil && !errors.Is(e.Err, chromedp.ErrPollingTimeout) {
		return fmt.Sprintf("expected %s within %s: %v", e.Condition, e.Timeout, e.Err)
	}
	return fmt.Sprintf("expected %s within %s", e.Condition, e.Timeout)
}

func (e *ConditionError) Unwrap() error { return e.Err }

// Expect polls cond in the page bound to ctx until it holds or timeout elapses.
func Expect(ctx context.Context, cond Condition, timeout time.Duration) error {
	err := chromedp.Run(ctx, chromedp.Poll(cond.Expr, nil,
		chromedp.WithPollingTimeout(timeout),
		chromedp.WithPollingInterval(pollInterval),
	))
	if err != nil {
		return &ConditionError{Condition: cond, Timeout: timeout, Err: err}
	}
	return nil
}

// Satisfied evaluates cond once without waiting.
func Satisfied(ctx context.Context, cond Condition) (bool, error) {
	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf("!!(%s)", cond.Expr), &ok)); err != nil {
		return false, fmt.Errorf("failed to evaluate %s: %w", cond, err)
	}
	return ok, nil
}
