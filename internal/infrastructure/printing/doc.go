// Package printing provides infrastructure for rendering invoice documents
// to PDF.
//
// This package contains:
// - PDFRenderer interface for rendering HTML to PDF
// - ChromedpRenderer implementation using the Chrome DevTools Protocol
// - WkhtmltopdfRenderer implementation using the wkhtmltopdf command-line tool
// - TemplateEngine for producing invoice HTML from the embedded template
// - Generator which ties the pieces together and writes the PDF artifact
//
// Example usage:
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{
//	    DefaultTimeout: 30 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer renderer.Close()
//
//	gen, err := NewGenerator(renderer, &GeneratorConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc, err := gen.Render(ctx, inv, payable, time.Now())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Generated PDF: %s (%d bytes)\n", doc.Path, doc.Size)
package printing
