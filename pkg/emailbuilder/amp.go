package emailbuilder

import (
	"fmt"
	"strings"
)

// AMP4EMAIL rules. Only a subset of component types has an AMP-safe
// rendering; renderNode falls back to the regular HTML rule for the rest.

// renderAmpNode returns the AMP fragment for a node and whether an AMP rule
// exists for its type. Nodes that opt out of AMP validation always fall back
// to the HTML rule.
func (r *renderer) renderAmpNode(node *ComponentNode) (string, bool) {
	if node.Settings.SkipAmpValidation {
		return "", false
	}

	switch node.Type {
	case ComponentImage:
		return r.renderAmpImage(node), true
	case ComponentVideo:
		// amp-video is not allowed in AMP4EMAIL; the poster-link fallback
		// from the HTML rule applies.
		return "", false
	case ComponentAmpCarousel:
		return r.renderAmpCarousel(node), true
	case ComponentAmpAccordion:
		return r.renderAmpAccordion(node), true
	case ComponentAmpForm:
		return r.renderAmpForm(node), true
	case ComponentAmpList:
		return r.renderAmpList(node), true
	default:
		return "", false
	}
}

// renderAmpImage emits an <amp-img>, which requires explicit width, height
// and layout attributes.
func (r *renderer) renderAmpImage(node *ComponentNode) string {
	content, _ := node.Content.(ImageContent)

	props := mergedProps(DefaultStyles(node.Type).Props, node.Styles.Props)
	width := dimensionOr(props["width"], fmt.Sprintf("%d", r.templateWidth()))
	height := dimensionOr(props["height"], "300")

	img := fmt.Sprintf(`<amp-img src="%s" alt="%s" width="%s" height="%s" layout="responsive"></amp-img>`,
		escapeAttr(content.Src, "src"), escapeAttr(content.Alt, "alt"), width, height)
	if content.Href != "" {
		return fmt.Sprintf(`<a href="%s">%s</a>`, escapeAttr(content.Href, "href"), img)
	}
	return img
}

func (r *renderer) renderAmpCarousel(node *ComponentNode) string {
	content, _ := node.Content.(AmpCarouselContent)
	width := dimensionOr(content.Width, fmt.Sprintf("%d", r.templateWidth()))
	height := dimensionOr(content.Height, "300")

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<amp-carousel width="%s" height="%s" layout="responsive" type="slides">`, width, height))
	for _, img := range content.Images {
		sb.WriteString(fmt.Sprintf(`<amp-img src="%s" alt="%s" width="%s" height="%s" layout="fill"></amp-img>`,
			escapeAttr(img.Src, "src"), escapeAttr(img.Alt, "alt"), width, height))
	}
	sb.WriteString("</amp-carousel>")
	return sb.String()
}

func (r *renderer) renderAmpAccordion(node *ComponentNode) string {
	content, _ := node.Content.(AmpAccordionContent)

	var sb strings.Builder
	sb.WriteString("<amp-accordion>")
	for _, section := range content.Sections {
		sb.WriteString("<section>")
		sb.WriteString(fmt.Sprintf("<h2>%s</h2>", r.resolveText(section.Title)))
		sb.WriteString(fmt.Sprintf("<div>%s</div>", r.resolveText(section.Body)))
		sb.WriteString("</section>")
	}
	sb.WriteString("</amp-accordion>")
	return sb.String()
}

func (r *renderer) renderAmpForm(node *ComponentNode) string {
	content, _ := node.Content.(AmpFormContent)
	method := strings.ToUpper(content.Method)
	if method == "" {
		method = "POST"
	}
	return fmt.Sprintf(`<form method="%s" action-xhr="%s"><input type="email" name="email" placeholder="you@example.com"><input type="submit" value="Submit"></form>`,
		method, escapeAttr(content.Action, "action"))
}

func (r *renderer) renderAmpList(node *ComponentNode) string {
	content, _ := node.Content.(AmpListContent)
	item := content.ItemTemplate
	if item == "" {
		item = "<div>{{.}}</div>"
	}
	return fmt.Sprintf(`<amp-list src="%s" layout="fixed-height" height="200"><template type="amp-mustache">%s</template></amp-list>`,
		escapeAttr(content.Src, "src"), item)
}

func (r *renderer) templateWidth() int {
	if r.t.Settings.Width > 0 {
		return r.t.Settings.Width
	}
	return DefaultTemplateWidth
}

// dimensionOr strips a px suffix and falls back when empty; amp-img wants
// bare numbers.
func dimensionOr(value, fallback string) string {
	value = strings.TrimSuffix(strings.TrimSpace(value), "px")
	if value == "" || value == "100%" || strings.HasSuffix(value, "%") {
		return fallback
	}
	return value
}
