package resume

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/playwright-community/playwright-go"

	"go-applyflow-automation/internal/models"
)

// Renderer turns a structured resume into PDF bytes.
type Renderer interface {
	Render(resume *models.Resume) ([]byte, error)
}

// PDFRenderer parses the resume through an HTML template and prints it to
// PDF with a headless Chromium page.
type PDFRenderer struct {
	templatePath string
}

func NewPDFRenderer(templatePath string) *PDFRenderer {
	return &PDFRenderer{templatePath: templatePath}
}

func (r *PDFRenderer) Render(resume *models.Resume) ([]byte, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}

	tmpl, err := template.New(filepath.Base(r.templatePath)).Funcs(funcMap).ParseFiles(r.templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, resume); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch chromium browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create new page: %w", err)
	}
	defer page.Close()

	if err := page.SetContent(buf.String(), playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("could not set page content: %w", err)
	}

	pdfBytes, err := page.PDF(playwright.PagePdfOptions{
		Format:          playwright.String("A4"),
		PrintBackground: playwright.Bool(true),
		Margin: &playwright.Margin{
			Top:    playwright.String("0"),
			Bottom: playwright.String("0"),
			Left:   playwright.String("0"),
			Right:  playwright.String("0"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("could not generate PDF: %w", err)
	}

	return pdfBytes, nil
}

// WriteTemp writes PDF bytes to a temp file and returns its path. Callers
// remove the file once the upload and the form fill are done.
func WriteTemp(pdfBytes []byte, filename string) (string, error) {
	dir := filepath.Join(os.TempDir(), "applyflow-cv")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, pdfBytes, 0644); err != nil {
		return "", fmt.Errorf("could not write pdf: %w", err)
	}
	return path, nil
}
