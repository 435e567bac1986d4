package brief

import "strings"

// Platform is a social channel a creative can target.
type Platform struct {
	Name       string
	Dimensions string
}

// PostType is a creative theme.
type PostType struct {
	Label string
	Icon  string
}

// Palette is a named set of hex colors.
type Palette struct {
	Name   string
	Colors []string
}

// Option is a value/label pair for select inputs.
type Option struct {
	Value string
	Label string
}

var Platforms = []Platform{
	{Name: "Facebook", Dimensions: "1200 × 628 px"},
	{Name: "Instagram", Dimensions: "1080 × 1080 px"},
	{Name: "WhatsApp", Dimensions: "800 × 800 px"},
	{Name: "LinkedIn", Dimensions: "1200 × 627 px"},
	{Name: "X.com", Dimensions: "1600 × 900 px"},
}

var PostTypes = []PostType{
	{Label: "Sale", Icon: "🏷️"},
	{Label: "New Arrival", Icon: "✨"},
	{Label: "Event", Icon: "🎉"},
	{Label: "Seasonal", Icon: "🌞"},
	{Label: "Product", Icon: "📦"},
	{Label: "Brand", Icon: "🎨"},
}

var Palettes = []Palette{
	{Name: "Vibrant", Colors: []string{"#ef4444", "#f97316", "#eab308", "#22c55e"}},
	{Name: "Cool", Colors: []string{"#06b6d4", "#3b82f6", "#8b5cf6", "#6366f1"}},
	{Name: "Warm", Colors: []string{"#f97316", "#ef4444", "#ec4899", "#f59e0b"}},
	{Name: "Nature", Colors: []string{"#22c55e", "#84cc16", "#14b8a6", "#10b981"}},
	{Name: "Elegant", Colors: []string{"#1f2937", "#374151", "#6b7280", "#d4af37"}},
}

// CallToActions lists the selectable CTAs; values are what the brief stores.
var CallToActions = []Option{
	{Value: "shop-now", Label: "Shop Now"},
	{Value: "learn-more", Label: "Learn More"},
	{Value: "buy-now", Label: "Buy Now"},
	{Value: "get-offer", Label: "Get Offer"},
	{Value: "sign-up", Label: "Sign Up"},
	{Value: "order-now", Label: "Order Now"},
	{Value: "discover", Label: "Discover"},
	{Value: "custom", Label: "Custom"},
}

// LookupPlatform finds a platform by name, ignoring case.
func LookupPlatform(name string) (Platform, bool) {
	for _, p := range Platforms {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Platform{}, false
}

// CTALabel maps a CTA value to its display label. Unknown non-empty values are
// returned as typed; empty values yield "".
func CTALabel(value string) string {
	for _, o := range CallToActions {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
