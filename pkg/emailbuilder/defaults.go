package emailbuilder

// Default content and styles for freshly dropped components. This table is
// the single source of truth for every ComponentType; an unmapped type is a
// defect, so NewComponent covers the whole enum and tests assert that.

const placeholderImageURL = "https://placehold.co/600x300/e2e8f0/64748b?text=Image"

// DefaultContent returns the starting content payload for a component type.
func DefaultContent(t ComponentType) Content {
	switch t {
	case ComponentText:
		return TextContent{Text: "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Edit this text to get started."}
	case ComponentHeading:
		return HeadingContent{Text: "Add a heading", Level: "h2"}
	case ComponentHeader:
		return HeaderContent{Title: "Your Company", Subtitle: "Tagline or announcement goes here"}
	case ComponentFooter:
		return FooterContent{
			Content:         "© 2026 Your Company. All rights reserved.",
			ShowUnsubscribe: true,
		}
	case ComponentImage:
		return ImageContent{Src: placeholderImageURL, Alt: "Placeholder image"}
	case ComponentButton:
		return ButtonContent{Text: "Click me", Href: "https://example.com", Target: "_blank"}
	case ComponentDivider:
		return DividerContent{}
	case ComponentSpacer:
		return SpacerContent{}
	case ComponentSocial:
		return SocialContent{Links: []SocialLink{
			{Platform: "twitter", URL: "https://twitter.com/yourhandle"},
			{Platform: "facebook", URL: "https://facebook.com/yourpage"},
			{Platform: "linkedin", URL: "https://linkedin.com/company/yourcompany"},
		}}
	case ComponentVideo:
		return VideoContent{Src: "https://example.com/video.mp4", PosterURL: placeholderImageURL}
	case ComponentHTML:
		return HTMLContent{HTML: "<!-- custom html -->"}
	case ComponentTimer:
		return TimerContent{EndsAt: "2026-12-31T23:59:59Z", Label: "Offer ends in"}
	case ComponentProduct:
		return ProductContent{Name: "Product name", Price: "$49", ImageURL: placeholderImageURL, Href: "https://example.com/product"}
	case ComponentTestimonial:
		return TestimonialContent{Quote: "This product changed the way we work.", Author: "A happy customer"}
	case ComponentPricing:
		return PricingContent{Plan: "Pro", Price: "$29", Period: "month"}
	case ComponentGallery:
		return GalleryContent{Images: []ImageContent{
			{Src: placeholderImageURL, Alt: "Gallery image 1"},
			{Src: placeholderImageURL, Alt: "Gallery image 2"},
		}}
	case ComponentForm:
		return FormContent{Action: "https://example.com/subscribe", Label: "Subscribe"}
	case ComponentSurvey:
		return SurveyContent{Question: "How did we do?", Options: []string{"Great", "Okay", "Poor"}}
	case ComponentContainer, ComponentRow, ComponentColumn, ComponentColumns:
		return ContainerContent{}
	case ComponentAmpCarousel:
		return AmpCarouselContent{
			Images: []ImageContent{
				{Src: placeholderImageURL, Alt: "Slide 1"},
				{Src: placeholderImageURL, Alt: "Slide 2"},
			},
			Width:  "600",
			Height: "300",
		}
	case ComponentAmpAccordion:
		return AmpAccordionContent{Sections: []AccordionSection{
			{Title: "Section 1", Body: "Expandable content goes here."},
		}}
	case ComponentAmpForm:
		return AmpFormContent{Action: "https://example.com/submit", Method: "post"}
	case ComponentAmpList:
		return AmpListContent{Src: "https://example.com/items.json"}
	default:
		return RawContent{}
	}
}

// DefaultStyles returns the starting style set for a component type.
func DefaultStyles(t ComponentType) StyleSet {
	switch t {
	case ComponentText:
		return Styles(map[string]string{
			"fontSize":      "16px",
			"lineHeight":    "1.5",
			"color":         "#1f2937",
			"paddingTop":    "8px",
			"paddingBottom": "8px",
			"paddingLeft":   "24px",
			"paddingRight":  "24px",
		})
	case ComponentHeading:
		return Styles(map[string]string{
			"fontSize":      "24px",
			"fontWeight":    "bold",
			"color":         "#111827",
			"paddingTop":    "16px",
			"paddingBottom": "8px",
			"paddingLeft":   "24px",
			"paddingRight":  "24px",
		})
	case ComponentHeader:
		return Styles(map[string]string{
			"backgroundColor": "#2563eb",
			"color":           "#ffffff",
			"textAlign":       "center",
			"paddingTop":      "32px",
			"paddingBottom":   "32px",
			"paddingLeft":     "24px",
			"paddingRight":    "24px",
		})
	case ComponentFooter:
		return Styles(map[string]string{
			"backgroundColor": "#f4f4f5",
			"color":           "#6b7280",
			"fontSize":        "12px",
			"textAlign":       "center",
			"paddingTop":      "24px",
			"paddingBottom":   "24px",
			"paddingLeft":     "24px",
			"paddingRight":    "24px",
		})
	case ComponentImage:
		return Styles(map[string]string{
			"width":   "100%",
			"padding": "0px",
		})
	case ComponentButton:
		return Styles(map[string]string{
			"backgroundColor": "#2563eb",
			"color":           "#ffffff",
			"fontSize":        "16px",
			"fontWeight":      "bold",
			"borderRadius":    "6px",
			"textAlign":       "center",
			"paddingTop":      "12px",
			"paddingBottom":   "12px",
			"paddingLeft":     "32px",
			"paddingRight":    "32px",
		})
	case ComponentDivider:
		return Styles(map[string]string{
			"borderTop":     "1px solid #e5e7eb",
			"paddingTop":    "16px",
			"paddingBottom": "16px",
		})
	case ComponentSpacer:
		return Styles(map[string]string{
			"height": "32px",
		})
	case ComponentSocial:
		return Styles(map[string]string{
			"textAlign":     "center",
			"paddingTop":    "16px",
			"paddingBottom": "16px",
		})
	case ComponentColumns, ComponentRow:
		return Styles(map[string]string{
			"paddingTop":    "8px",
			"paddingBottom": "8px",
		})
	case ComponentContainer, ComponentColumn:
		return Styles(map[string]string{})
	default:
		return Styles(map[string]string{
			"paddingTop":    "8px",
			"paddingBottom": "8px",
			"paddingLeft":   "24px",
			"paddingRight":  "24px",
		})
	}
}

// NewComponent builds a fresh node of the given type with its default
// content, styles and a brand-new id.
func NewComponent(t ComponentType) *ComponentNode {
	node := &ComponentNode{
		ID:      NewNodeID(),
		Type:    t,
		Name:    DisplayName(t),
		Content: DefaultContent(t),
		Styles:  DefaultStyles(t),
	}
	if IsContainerType(t) {
		node.Children = []*ComponentNode{}
	}
	return node
}
