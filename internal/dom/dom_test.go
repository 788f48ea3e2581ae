package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateExpr(t *testing.T) {
	assert.Equal(t, AttachedExpr("#roundSelect"), StateExpr("#roundSelect", Attached))
	assert.Equal(t, VisibleExpr("#shareBtn"), StateExpr("#shareBtn", Visible))
	assert.Equal(t, HiddenExpr(".weather-widget"), StateExpr(".weather-widget", Hidden))
	assert.Equal(t, AttachedExpr("x"), StateExpr("x", State("unknown")))
	assert.True(t, strings.HasPrefix(HiddenExpr("x"), "!"))
}

func TestSelectorsAreQuoted(t *testing.T) {
	selector := `div[title="Precipitation"] span`
	expr := TextNotEqualExpr(selector, "--%")

	assert.Contains(t, expr, `"div[title=\"Precipitation\"] span"`)
	assert.Contains(t, expr, `"--%"`)
}

func TestSelectScripts(t *testing.T) {
	byValue := SelectByValueScript("#roundSelect", "1")
	assert.Contains(t, byValue, `o.value === "1"`)
	assert.Contains(t, byValue, `new Event('change'`)
	assert.Contains(t, byValue, `new Event('input'`)

	byIndex := SelectByIndexScript("#roundSelect", 2)
	assert.Contains(t, byIndex, "el.selectedIndex = 2;")
	assert.Contains(t, byIndex, "el.options.length <= 2")
}

func TestAttributeAndClassExpr(t *testing.T) {
	assert.Contains(t, AttributeEqualsExpr("#shareBtn", "aria-label", "Link copied!"), `el.getAttribute("aria-label") === "Link copied!"`)
	assert.Contains(t, HasClassExpr("#shareBtn", "copied"), `el.classList.contains("copied")`)
}
