package emailbuilder

import (
	"fmt"
	"strings"
)

// Per-type markup rules. Each rule is a small function from one node to a
// markup fragment; containers recurse through renderChildren. Author-supplied
// text content is trusted HTML and is emitted unescaped; attribute values are
// escaped.

func (r *renderer) renderHeader(node *ComponentNode) string {
	content, _ := node.Content.(HeaderContent)
	style := r.nodeStyle(node)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<div%s>", style))
	sb.WriteString(fmt.Sprintf(`<h1 style="margin: 0; font-size: 28px;">%s</h1>`, r.resolveText(content.Title)))
	if content.Subtitle != "" {
		sb.WriteString(fmt.Sprintf(`<p style="margin: 8px 0 0 0; font-size: 16px;">%s</p>`, r.resolveText(content.Subtitle)))
	}
	sb.WriteString("</div>")
	return sb.String()
}

func (r *renderer) renderText(node *ComponentNode) string {
	content, _ := node.Content.(TextContent)
	return fmt.Sprintf("<div%s>%s</div>", r.nodeStyle(node), r.resolveText(content.Text))
}

func (r *renderer) renderHeading(node *ComponentNode) string {
	content, _ := node.Content.(HeadingContent)
	level := content.Level
	switch level {
	case "h1", "h2", "h3", "h4":
	default:
		level = "h2"
	}
	return fmt.Sprintf("<%s%s>%s</%s>", level, r.nodeStyle(node), r.resolveText(content.Text), level)
}

func (r *renderer) renderImage(node *ComponentNode) string {
	content, _ := node.Content.(ImageContent)
	img := fmt.Sprintf(`<img src="%s" alt="%s"%s>`, escapeAttr(content.Src, "src"), escapeAttr(content.Alt, "alt"), r.nodeStyle(node))
	if content.Href != "" {
		return fmt.Sprintf(`<a href="%s" target="_blank">%s</a>`, escapeAttr(content.Href, "href"), img)
	}
	return img
}

func (r *renderer) renderButton(node *ComponentNode) string {
	content, _ := node.Content.(ButtonContent)
	target := content.Target
	if target == "" {
		target = "_blank"
	}
	anchor := fmt.Sprintf(`<a href="%s" target="%s"%s>%s</a>`,
		escapeAttr(content.Href, "href"), target, r.buttonStyle(node), r.resolveText(content.Text))
	return fmt.Sprintf(`<div style="text-align: center; padding: 16px 0;">%s</div>`, anchor)
}

// buttonStyle forces the anchor-as-button display properties on top of the
// node's own styles.
func (r *renderer) buttonStyle(node *ComponentNode) string {
	props := mergedProps(DefaultStyles(node.Type).Props, node.Styles.Props)
	props["display"] = "inline-block"
	props["textDecoration"] = "none"
	if r.opts.InlineCSS {
		return styleAttr(props)
	}
	class := "c-" + node.ID
	if rule := cssRule("."+class, props); rule != "" {
		r.classRules = append(r.classRules, rule)
	}
	return fmt.Sprintf(` class=%q`, class)
}

func (r *renderer) renderDivider(node *ComponentNode) string {
	return fmt.Sprintf(`<hr%s>`, r.nodeStyle(node))
}

func (r *renderer) renderSpacer(node *ComponentNode) string {
	props := mergedProps(DefaultStyles(node.Type).Props, node.Styles.Props)
	height := props["height"]
	if height == "" {
		height = "32px"
	}
	return fmt.Sprintf(`<div style="height: %s; line-height: %s; font-size: 1px;">&nbsp;</div>`, height, height)
}

// renderColumns lays out the children as table cells, each sized to an equal
// share of the row.
func (r *renderer) renderColumns(node *ComponentNode) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0"%s>`, r.nodeStyle(node)))
	sb.WriteString("<tr>")

	count := 0
	for _, child := range node.Children {
		if child != nil && !child.Hidden {
			count++
		}
	}
	if count > 0 {
		cellWidth := formatPercent(100.0 / float64(count))
		for _, child := range node.Children {
			if child == nil || child.Hidden {
				continue
			}
			sb.WriteString(fmt.Sprintf(`<td width="%s" valign="top">`, cellWidth))
			sb.WriteString(r.renderNode(child))
			sb.WriteString("</td>")
		}
	}

	sb.WriteString("</tr></table>")
	return sb.String()
}

// formatPercent renders a cell width, trimming the decimal part for whole
// numbers so two columns read "50%" rather than "50.00%".
func formatPercent(v float64) string {
	if v == float64(int(v)) {
		return fmt.Sprintf("%d%%", int(v))
	}
	return fmt.Sprintf("%.2f%%", v)
}

func (r *renderer) renderContainer(node *ComponentNode) string {
	return fmt.Sprintf("<div%s>%s</div>", r.nodeStyle(node), r.renderChildren(node))
}

func (r *renderer) renderSocial(node *ComponentNode) string {
	content, _ := node.Content.(SocialContent)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<div%s>", r.nodeStyle(node)))
	for _, link := range content.Links {
		label := link.Platform
		if label != "" {
			label = strings.ToUpper(label[:1]) + label[1:]
		}
		if link.IconURL != "" {
			sb.WriteString(fmt.Sprintf(`<a href="%s" target="_blank" style="display: inline-block; margin: 0 8px;"><img src="%s" alt="%s" width="32" height="32"></a>`,
				escapeAttr(link.URL, "href"), escapeAttr(link.IconURL, "src"), escapeAttr(label, "alt")))
		} else {
			sb.WriteString(fmt.Sprintf(`<a href="%s" target="_blank" style="display: inline-block; margin: 0 8px; text-decoration: none;">%s</a>`,
				escapeAttr(link.URL, "href"), label))
		}
	}
	sb.WriteString("</div>")
	return sb.String()
}

func (r *renderer) renderFooter(node *ComponentNode) string {
	content, _ := node.Content.(FooterContent)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<div%s>", r.nodeStyle(node)))
	sb.WriteString(fmt.Sprintf("<div>%s</div>", r.resolveText(content.Content)))
	if content.ShowUnsubscribe {
		// The unsubscribe target stays a merge tag so the sending platform
		// substitutes its own link.
		sb.WriteString(`<div style="margin-top: 8px;"><a href="{{unsubscribeUrl}}" style="color: inherit;">Unsubscribe</a></div>`)
	}
	sb.WriteString("</div>")
	return sb.String()
}

// renderVideo emits a poster image linking to the video. Email clients do
// not play inline video.
func (r *renderer) renderVideo(node *ComponentNode) string {
	content, _ := node.Content.(VideoContent)
	poster := content.PosterURL
	if poster == "" {
		poster = placeholderImageURL
	}
	return fmt.Sprintf(`<a href="%s" target="_blank"%s><img src="%s" alt="Play video" style="width: 100%%;"></a>`,
		escapeAttr(content.Src, "href"), r.nodeStyle(node), escapeAttr(poster, "src"))
}

func (r *renderer) renderRawHTML(node *ComponentNode) string {
	content, _ := node.Content.(HTMLContent)
	return content.HTML
}

// renderPlaceholder is the visible fallback for advanced widgets and
// unrecognized types.
func (r *renderer) renderPlaceholder(node *ComponentNode) string {
	label := DisplayName(node.Type)
	if !IsKnownType(node.Type) {
		label = fmt.Sprintf("Unknown component (%s)", node.Type)
	}
	return fmt.Sprintf(`<div style="border: 1px dashed #9ca3af; background-color: #f9fafb; color: #6b7280; text-align: center; padding: 24px; font-size: 14px;">%s</div>`, label)
}

// escapeAttr escapes an attribute value. Ampersands in URL attributes are
// preserved so query strings survive.
func escapeAttr(value, attrName string) string {
	isURLAttr := attrName == "src" || attrName == "href" || attrName == "action"
	looksLikeURL := strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") || strings.HasPrefix(value, "//")

	if !(isURLAttr && looksLikeURL) {
		value = strings.ReplaceAll(value, "&", "&amp;")
	}
	value = strings.ReplaceAll(value, "\"", "&quot;")
	value = strings.ReplaceAll(value, "<", "&lt;")
	value = strings.ReplaceAll(value, ">", "&gt;")
	return value
}
