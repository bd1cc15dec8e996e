package bots

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"go-applyflow-automation/internal/browser"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// normalizeText lowercases, collapses whitespace, and strips diacritics so
// labels like "Años de experiencia" match keyword lists written in ASCII.
func normalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return strings.ToLower(strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " ")))
}

// firstLine returns the first non-empty line of a label blob.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// isRequiredField inspects the input and its block for required markers.
func isRequiredField(block, input playwright.Locator) bool {
	if attr, err := input.GetAttribute("required"); err == nil && attr != "" {
		return true
	}
	if attr, err := input.GetAttribute("aria-required"); err == nil && attr == "true" {
		return true
	}
	if n, err := block.Locator("strong:has-text('*'), span[aria-label='required']").Count(); err == nil && n > 0 {
		return true
	}
	return false
}

// isShortInput decides whether a field wants a terse answer, from maxlength
// and element kind. Bare text inputs are short; textareas are long form.
func isShortInput(input playwright.Locator) (short bool, maxChars int) {
	if attr, err := input.GetAttribute("maxlength"); err == nil && attr != "" {
		if ml := parseInt(attr); ml > 0 {
			return ml <= 200, ml
		}
		return true, 0
	}

	tag, err := input.Evaluate("el => el.tagName.toLowerCase()", nil)
	if err != nil {
		return false, 0
	}
	inputType, _ := input.GetAttribute("type")
	if tag == "input" && (inputType == "" || inputType == "text") {
		return true, 0
	}
	return false, 0
}

func parseInt(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

var nonPhoneRe = regexp.MustCompile(`[^0-9+]`)
var nonDigitRe = regexp.MustCompile(`\D`)

// FormatPhone normalizes a stored phone number for tel inputs. Numbers
// already in E.164 form pass through; national numbers get a country prefix
// for the countries we can infer.
func FormatPhone(raw, country string) string {
	s := nonPhoneRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "+") {
		digits := nonDigitRe.ReplaceAllString(s[1:], "")
		if digits == "" {
			return ""
		}
		return "+" + digits
	}

	national := nonDigitRe.ReplaceAllString(s, "")
	if national == "" {
		return ""
	}

	switch strings.ToLower(strings.TrimSpace(country)) {
	case "united kingdom", "uk", "gb":
		national = strings.TrimPrefix(national, "0")
		return "+44" + national
	case "united states", "us", "usa":
		return "+1" + national
	}
	return national
}

// selectByText picks the <select> option whose text best matches desired,
// falling back to the first non-empty option.
func selectByText(sel playwright.Locator, desired string) bool {
	options, err := sel.Locator("option").All()
	if err != nil {
		return false
	}
	desiredNorm := normalizeText(desired)

	for _, opt := range options {
		text, err := opt.InnerText()
		if err != nil {
			continue
		}
		textNorm := normalizeText(text)
		if desiredNorm == "" || textNorm == "" {
			continue
		}
		if strings.Contains(textNorm, desiredNorm) || strings.Contains(desiredNorm, textNorm) {
			if val, err := opt.GetAttribute("value"); err == nil && val != "" {
				_, err = sel.SelectOption(playwright.SelectOptionValues{Values: &[]string{val}})
				return err == nil
			}
		}
	}

	for _, opt := range options {
		val, err := opt.GetAttribute("value")
		if err != nil || val == "" {
			continue
		}
		if text, err := opt.InnerText(); err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		_, err = sel.SelectOption(playwright.SelectOptionValues{Values: &[]string{val}})
		return err == nil
	}
	return false
}

// optionTexts collects the visible texts of a locator's matches.
func optionTexts(options playwright.Locator) []string {
	all, err := options.All()
	if err != nil {
		return nil
	}
	texts := make([]string, 0, len(all))
	for _, opt := range all {
		if text, err := opt.InnerText(); err == nil {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				texts = append(texts, trimmed)
			}
		}
	}
	return texts
}

// clickOptionByText clicks the option matching the chosen text.
func clickOptionByText(options playwright.Locator, chosen string) bool {
	all, err := options.All()
	if err != nil {
		return false
	}
	chosenNorm := normalizeText(chosen)
	for _, opt := range all {
		text, err := opt.InnerText()
		if err != nil {
			continue
		}
		if normalizeText(text) == chosenNorm || strings.Contains(normalizeText(text), chosenNorm) {
			return opt.Click() == nil
		}
	}
	return false
}

// typeInto scrolls to the field, drifts the cursor over it, and types the
// value with human pacing.
func typeInto(page playwright.Page, input playwright.Locator, value string) {
	input.ScrollIntoViewIfNeeded()
	browser.MoveMouseTo(page, input)
	browser.RandomDelay(200, 500)
	browser.HumanType(input, value)
}

// pageBodyText extracts the page's visible text for confirmation checks.
func pageBodyText(page playwright.Page) string {
	result, err := page.Evaluate("() => document.body ? document.body.innerText : ''")
	if err != nil {
		return ""
	}
	if text, ok := result.(string); ok {
		return text
	}
	return ""
}
