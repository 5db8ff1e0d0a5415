package engine

import (
	"strings"

	"github.com/listforge/listforge-be/internal/domain"
)

// MapProductToFields maps product attributes onto detected form fields,
// keyed by field selector (falling back to field name). Fields with no
// matching product data are left out so the provider never fills blanks.
func MapProductToFields(product *domain.SaasProduct, fields []domain.FormField) map[string]string {
	values := make(map[string]string)

	for _, field := range fields {
		value := productValueFor(product, field)
		if value == "" {
			continue
		}

		key := field.Selector
		if key == "" {
			key = field.Name
		}
		values[key] = value
	}

	return values
}

// productValueFor resolves the product attribute a field asks for, based
// on its name and label.
func productValueFor(product *domain.SaasProduct, field domain.FormField) string {
	text := strings.ToLower(field.Name + " " + field.Label)

	switch {
	case containsAny(text, "company", "product name", "app name", "startup", "name"):
		return product.Name
	// Social fields come before website so "linkedin" is not swallowed
	// by the "link" match.
	case containsAny(text, "twitter", "x.com"):
		return product.SocialLinks["twitter"]
	case containsAny(text, "linkedin"):
		return product.SocialLinks["linkedin"]
	case containsAny(text, "website", "url", "link", "site"):
		return product.WebsiteURL
	case containsAny(text, "email"):
		return product.ContactEmail
	case containsAny(text, "short description", "tagline", "pitch"):
		if product.ShortDescription != "" {
			return product.ShortDescription
		}
		return product.Tagline
	case containsAny(text, "description", "about", "details"):
		return product.Description
	case containsAny(text, "category", "industry", "sector"):
		return product.Category
	case containsAny(text, "logo", "image", "icon"):
		return product.LogoURL
	case containsAny(text, "pricing", "price"):
		return product.PricingModel
	case containsAny(text, "feature"):
		return strings.Join(product.Features, ", ")
	}

	return ""
}

func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
