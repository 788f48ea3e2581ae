// Package dom builds the JavaScript snippets evaluated in the page to inspect and drive the DOM.
// Every snippet is a single expression so it can be passed to chromedp.Evaluate or chromedp.Poll.
package dom

import (
	"encoding/json"
	"fmt"
)

// State is the condition WaitForSelector waits for.
type State string

const (
	Attached State = "attached"
	Visible  State = "visible"
	Hidden   State = "hidden"
)

// quote renders s as a JavaScript string literal.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// isVisibleFn mirrors the usual definition of visibility: rendered, non-empty box, not hidden by style.
const isVisibleFn = `(el) => {
	if (!el || !el.isConnected) return false;
	const style = window.getComputedStyle(el);
	if (style.display === 'none' || style.visibility === 'hidden' || style.opacity === '0') return false;
	const rect = el.getBoundingClientRect();
	return rect.width > 0 && rect.height > 0;
}`

// AttachedExpr is true once the selector matches an element.
func AttachedExpr(selector string) string {
	return fmt.Sprintf(`document.querySelector(%s) !== null`, quote(selector))
}

// VisibleExpr is true when the first match is rendered with a non-empty box.
func VisibleExpr(selector string) string {
	return fmt.Sprintf(`(%s)(document.querySelector(%s))`, isVisibleFn, quote(selector))
}

// HiddenExpr is true when nothing matches or the first match is not visible.
func HiddenExpr(selector string) string {
	return fmt.Sprintf(`!(%s)(document.querySelector(%s))`, isVisibleFn, quote(selector))
}

// StateExpr returns the predicate for state.
func StateExpr(selector string, state State) string {
	switch state {
	case Visible:
		return VisibleExpr(selector)
	case Hidden:
		return HiddenExpr(selector)
	default:
		return AttachedExpr(selector)
	}
}

// AttributeEqualsExpr is true when the first match has attribute name equal to value.
func AttributeEqualsExpr(selector, name, value string) string {
	return fmt.Sprintf(`(() => { const el = document.querySelector(%s); return !!el && el.getAttribute(%s) === %s; })()`,
		quote(selector), quote(name), quote(value))
}

// HasClassExpr is true when the first match carries class.
func HasClassExpr(selector, class string) string {
	return fmt.Sprintf(`(() => { const el = document.querySelector(%s); return !!el && el.classList.contains(%s); })()`,
		quote(selector), quote(class))
}

// TextEqualsExpr compares the trimmed text content of the first match.
func TextEqualsExpr(selector, text string) string {
	return fmt.Sprintf(`(() => { const el = document.querySelector(%s); return !!el && el.textContent.trim() === %s; })()`,
		quote(selector), quote(text))
}

// TextNotEqualExpr is true once the first match exists and its trimmed text differs from placeholder.
func TextNotEqualExpr(selector, placeholder string) string {
	return fmt.Sprintf(`(() => { const el = document.querySelector(%s); return !!el && el.textContent.trim() !== %s; })()`,
		quote(selector), quote(placeholder))
}

// BodyContainsExpr is true when the page text contains text.
func BodyContainsExpr(text string) string {
	return fmt.Sprintf(`!!document.body && document.body.innerText.includes(%s)`, quote(text))
}

// OptionCountExpr returns the number of options in the first matching select, or -1.
func OptionCountExpr(selector string) string {
	return fmt.Sprintf(`(() => { const el = document.querySelector(%s); return el && el.options ? el.options.length : -1; })()`,
		quote(selector))
}

// HasOptionValueExpr is true when the select contains an option with value.
func HasOptionValueExpr(selector, value string) string {
	return fmt.Sprintf(`(() => { const el = document.querySelector(%s); return !!el && !!el.options && Array.from(el.options).some(o => o.value === %s); })()`,
		quote(selector), quote(value))
}

// selectScript assigns the select value and fires the events a user selection would.
const selectScript = `(() => {
	const el = document.querySelector(%s);
	if (!el || !el.options) return false;
	%s
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})()`

// SelectByValueScript selects the option with value and dispatches input and change.
func SelectByValueScript(selector, value string) string {
	assign := fmt.Sprintf(`const opt = Array.from(el.options).find(o => o.value === %s);
	if (!opt) return false;
	el.value = opt.value;`, quote(value))
	return fmt.Sprintf(selectScript, quote(selector), assign)
}

// SelectByIndexScript selects the option at index and dispatches input and change.
func SelectByIndexScript(selector string, index int) string {
	assign := fmt.Sprintf(`if (el.options.length <= %d) return false;
	el.selectedIndex = %d;`, index, index)
	return fmt.Sprintf(selectScript, quote(selector), assign)
}

// Box is an element's bounding box in CSS pixels relative to the viewport.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BoundingBoxExpr returns the box of the first match, or null.
func BoundingBoxExpr(selector string) string {
	return fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (!el) return null; const r = el.getBoundingClientRect(); return { x: r.x, y: r.y, width: r.width, height: r.height }; })()`,
		quote(selector))
}

// DescribeExpr returns className and inline style of the first match for failure diagnostics.
func DescribeExpr(selector string) string {
	return fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (!el) return null; return { className: String(el.className), style: el.getAttribute('style') || '' }; })()`,
		quote(selector))
}

// StubClipboardScript replaces navigator.clipboard.writeText with a resolving stub
// so clipboard feedback can be verified headless.
const StubClipboardScript = `(() => {
	const stub = { writeText: (text) => { window.__copiedText = text; return Promise.resolve(); } };
	try {
		Object.defineProperty(navigator, 'clipboard', { value: stub, configurable: true });
	} catch (e) {
		navigator.clipboard.writeText = stub.writeText;
	}
	return true;
})()`
