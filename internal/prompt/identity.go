package prompt

import "banner-creator/internal/theme"

// Scenario is a high level direction a user can pick when no merchant is
// named.
type Scenario struct {
	Name  string `json:"name"`
	Focus string `json:"focus"`
}

type Domain struct {
	Name        string   `json:"name"`
	Objects     []string `json:"objects"`
	KeyAccounts []string `json:"keyAccounts,omitempty"`
}

const DefaultScenario = "Global Reach"

// GenericDescription stands in for an empty prompt when enrichment fails.
const GenericDescription = "3D globe and floating currency coins, blue sky background, clean composition"

const (
	systemPrompt = "You are an image prompt generator for Razorpay International Payments blog banners. " +
		"Generate image prompts that match the IP visual identity. Every prompt MUST follow these rules:"

	visualSummary = "3D renders with a bright sky-blue world, floating currency coins, global commerce objects and diverse people. " +
		"The look is clean, optimistic and premium, not dark or corporate."

	merchantInstructions = "1. Search the web for what the merchant company does (industry, products, target market). " +
		"2. Identify which domain they belong to from the domain mapping. " +
		"3. Pick 2-3 visual objects from that domain's object list. " +
		"4. Determine if this is an Export or Import flow merchant. " +
		"5. Blend domain objects and flow-relevant IP objects into one composition; keep 3D coins and the sky-blue background. " +
		"6. Use the merchant's brand color as a subtle accent alongside Razorpay blue."
)

var mandatoryElements = []string{
	"ALWAYS include at least 2 floating 3D currency coins (silver-chrome or blue-metallic) with embossed symbols ($, ₩, ₣, ₹, ¥)",
	"ALWAYS use a bright sky-blue gradient background with soft white clouds, NOT dark/black",
	"ALWAYS specify '3D render' style with 'reflective metallic surfaces' and 'soft studio lighting'",
	"ALWAYS leave negative space on the side where text will overlay",
	"ALWAYS end with 'clean composition, premium fintech aesthetic, 1200x628'",
	"When people are included: render them photorealistically with natural skin tones, professional attire and natural poses, on the side opposite the text, with 3D coins floating around them",
}

var visualRules = []struct{ Name, Rule string }{
	{"lighting", "Bright, airy, daylight feel. Soft studio lighting on 3D objects with visible reflections and subtle shadows. Sky backgrounds have natural cloud formations."},
	{"depth", "Objects at different Z-depths: large coins in foreground slightly cropped at edges, globe mid-ground, smaller coins and parcels in background."},
	{"composition", "Hero object (globe or 3D arrow) center or center-right. Currency coins floating at various angles. Airplane top-left flying toward viewer. Generous negative space on one side for text overlay."},
	{"texture", "Smooth, reflective metallic surfaces, not matte. Chrome highlights on edges. Coins look premium, not flat illustrations."},
	{"mood", "Optimistic, aspirational, global scale. NOT dark or moody."},
	{"no-gos", "No stock-photo handshakes. No flat 2D illustrations. No cluttered compositions. No pure black backgrounds. No cartoonish people."},
}

var domains = []Domain{
	{"Travel & Hospitality", []string{"airplane tickets", "suitcase", "passport", "hotel building", "location pins on globe"}, []string{"Indigo", "Adam Vacations", "Airbnb"}},
	{"E-commerce", []string{"shopping bags", "product boxes", "delivery truck", "storefront", "shopping cart"}, []string{"FabIndia", "Sabyasachi", "Ferns N Petals"}},
	{"Education & EdTech", []string{"laptop with course interface", "graduation cap", "books", "certificate"}, []string{"Coursera", "CueMath"}},
	{"SaaS & Technology", []string{"laptop with app dashboard", "cloud icon", "subscription UI", "API code blocks"}, []string{"Wix", "DropBox"}},
	{"Food & Delivery", []string{"food delivery bag", "restaurant storefront", "mobile ordering screen"}, []string{"Zomato"}},
	{"Social & Lifestyle", []string{"mobile app interface", "chat/social icons", "premium subscription badge"}, []string{"Bumble"}},
	{"Freelance & Services", []string{"workspace setup", "design tools", "laptop with project dashboard", "invoice document"}, nil},
	{"Goods Export", []string{"textile rolls", "jewellery display", "machinery parts", "handicraft items", "shipping containers"}, nil},
}

var scenarios = []Scenario{
	{"Global Reach", "Globe + coins + airplane + parcels. Emphasize worldwide connectivity and cross-border scale."},
	{"Currency World", "Multiple 3D currency coins as hero objects. Close-up, floating, metallic detail. Diverse currency symbols."},
	{"Export: Cards & APMs", "Export Flow. 3D floating credit/debit cards + currency coins + payment method badges. Indian business receiving international payments."},
	{"Export: MoneySaver", "Export Flow. Bank transfer arrows connecting countries on globe + B2B invoice + currency coins. Affordable cross-border wire transfers."},
	{"Import: UPI for Global Brands", "Import Flow. UPI badge as hero + Indian consumer with phone + international brand elements. Globe showing payment flows from India outward."},
	{"Chargeback & Security", "3D metallic shield + protection barrier + currency coins. Trust and fraud prevention feel."},
	{"People & Payments", "Person (exporter, freelancer or consumer) surrounded by 3D payment objects. Human-centric, aspirational."},
	{"India Opportunity", "India map highlighted on globe + ₹ symbol + UPI badge + international coins flowing in."},
	{"Merchant Co-brand", "Combine IP visual DNA with merchant-specific objects from the domain mapping."},
	{"Custom", "User provides a free-form description, wrapped with the mandatory IP visual rules."},
}

var themeSync = map[theme.Name]string{
	theme.Default:      "Use bright sky-blue gradient background (#D4E8FF → #EFF6FF) with clouds",
	theme.Light:        "Same sky-blue background but ensure high contrast for white text overlay; slightly deeper blue gradient",
	theme.RazorpayBlue: "Use bolder Razorpay blue background (#3366FF → #5B8DEF) with white clouds; keep the text side darker for contrast",
}

// Scenarios lists the selectable scenarios in display order.
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// Domains lists the merchant domain mapping.
func Domains() []Domain {
	out := make([]Domain, len(domains))
	copy(out, domains)
	return out
}
