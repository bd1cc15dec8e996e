package browser

import (
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RandomDelay waits for a random duration between min and max milliseconds
func RandomDelay(min, max int) {
	duration := rand.Intn(max-min+1) + min
	time.Sleep(time.Duration(duration) * time.Millisecond)
}

// HumanType clicks the field and types the text with per-keystroke delays.
func HumanType(locator playwright.Locator, text string) error {
	if err := locator.Click(); err != nil {
		return err
	}
	RandomDelay(150, 400)
	return locator.PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Delay: playwright.Float(float64(rand.Intn(60) + 40)),
	})
}

// MoveMouseTo drifts the cursor to the element's center in several steps.
func MoveMouseTo(page playwright.Page, locator playwright.Locator) error {
	box, err := locator.BoundingBox()
	if err != nil || box == nil {
		return err
	}
	x := box.X + box.Width/2 + float64(rand.Intn(9)-4)
	y := box.Y + box.Height/2 + float64(rand.Intn(9)-4)
	return page.Mouse().Move(x, y, playwright.MouseMoveOptions{
		Steps: playwright.Int(rand.Intn(12) + 8),
	})
}

// HumanScroll pages down the document in uneven steps, then drifts back up
// a little.
func HumanScroll(page playwright.Page) error {
	steps := rand.Intn(3) + 3
	for i := 0; i < steps; i++ {
		if _, err := page.Evaluate("window.scrollBy(0, window.innerHeight / 2)"); err != nil {
			return err
		}
		RandomDelay(400, 1200)
	}
	_, err := page.Evaluate("window.scrollBy(0, -200)")
	return err
}

// IdleWander makes a couple of aimless mouse moves, the kind a reader makes
// while scanning a page.
func IdleWander(page playwright.Page) {
	size := page.ViewportSize()
	if size == nil {
		return
	}
	for i := 0; i < rand.Intn(2)+1; i++ {
		x := float64(rand.Intn(size.Width-100) + 50)
		y := float64(rand.Intn(size.Height-100) + 50)
		page.Mouse().Move(x, y, playwright.MouseMoveOptions{Steps: playwright.Int(rand.Intn(10) + 5)})
		RandomDelay(200, 700)
	}
}
