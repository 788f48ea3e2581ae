package scenarios

import (
	"time"

	"github.com/ternarybob/pitwall/internal/browser"
	"github.com/ternarybob/pitwall/internal/dom"
	"github.com/ternarybob/pitwall/internal/fixtures"
	"github.com/ternarybob/pitwall/internal/harness"
	"github.com/ternarybob/pitwall/internal/verify"
)

const feedbackTimeout = 2 * time.Second

// ShareButton clicks share with a stubbed clipboard and checks the copied feedback.
func ShareButton(h *harness.Harness) error {
	if err := openWithMocks(h, fixtures.F1Current); err != nil {
		return err
	}

	if err := h.Expect(verify.Require, verify.Attached("#roundSelect option:nth-child(2)"), 10*time.Second); err != nil {
		return err
	}
	if err := h.Do("select round 1", verify.Require, h.Driver.SelectByValue("#roundSelect", "1")); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.Visible("#shareBtn"), h.Driver.Timeout()); err != nil {
		return err
	}

	h.Do("grant clipboard permissions", verify.Warn, h.Page.GrantPermissions(h.BaseURL, browser.ClipboardPermissions...))
	if err := h.Do("stub clipboard", verify.Require, h.Driver.Evaluate(dom.StubClipboardScript, nil)); err != nil {
		return err
	}

	if err := h.Do("click #shareBtn", verify.Require, h.Driver.Click("#shareBtn")); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.HasClass("#shareBtn", "copied"), feedbackTimeout); err != nil {
		return err
	}
	if err := h.Expect(verify.Require, verify.AttributeEquals("#shareBtn", "aria-label", "Link copied!"), feedbackTimeout); err != nil {
		return err
	}
	h.Expect(verify.Check, verify.BodyContains("Bahrain Grand Prix"), h.Driver.Timeout())

	return h.Screenshot("share_btn_feedback")
}
