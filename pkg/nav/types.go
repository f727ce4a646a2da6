package nav

// Portfolio is a summary shown in the portfolio switcher.
type Portfolio struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// MenuItem is an entry in the sidebar menu.
type MenuItem struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Icon     string     `json:"icon"`
	Href     string     `json:"href"`
	Badge    *int       `json:"badge,omitempty"`
	Children []MenuItem `json:"children,omitempty"`
}

// NotificationType is the severity of a notification.
type NotificationType string

const (
	Info    NotificationType = "info"
	Warning NotificationType = "warning"
	Error   NotificationType = "error"
)

// Valid reports whether t is a known severity.
func (t NotificationType) Valid() bool {
	switch t {
	case Info, Warning, Error:
		return true
	}
	return false
}

// Notification is an in-memory message shown in the header.
type Notification struct {
	ID      string           `json:"id"`
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`
}

// DefaultPortfolios returns the demo portfolios.
func DefaultPortfolios() []Portfolio {
	return []Portfolio{
		{ID: "1", Name: "Main Portfolio", Value: 145692.45, Currency: "USD"},
		{ID: "2", Name: "DeFi Trading", Value: 52340.12, Currency: "USD"},
		{ID: "3", Name: "Long Term Hold", Value: 89450.78, Currency: "USD"},
	}
}

// DefaultMenuItems returns the sidebar menu.
func DefaultMenuItems() []MenuItem {
	return []MenuItem{
		{ID: "dashboard", Label: "Dashboard", Icon: "chart-bar", Href: "/dashboard"},
		{ID: "portfolios", Label: "Portfolios", Icon: "briefcase", Href: "/portfolios"},
		{ID: "transactions", Label: "Transactions", Icon: "credit-card", Href: "/transactions"},
		{ID: "coins", Label: "Coins & Tokens", Icon: "currency-dollar", Href: "/coins"},
		{ID: "analytics", Label: "Analytics", Icon: "chart-line", Href: "/analytics"},
		{ID: "tax-reports", Label: "Tax Reports", Icon: "document-text", Href: "/tax-reports"},
		{ID: "categories", Label: "Categories", Icon: "tag", Href: "/categories"},
		{ID: "settings", Label: "Settings", Icon: "cog", Href: "/settings"},
		{ID: "tools", Label: "Tools", Icon: "wrench", Href: "/tools"},
	}
}

// FindMenuItem returns the item with id, searching children depth-first.
func FindMenuItem(items []MenuItem, id string) (MenuItem, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
		if found, ok := FindMenuItem(item.Children, id); ok {
			return found, true
		}
	}
	return MenuItem{}, false
}

// State is a point-in-time copy of the navigation store.
type State struct {
	IsOpen          bool           `json:"isOpen"`
	IsMobile        bool           `json:"isMobile"`
	ActiveItem      string         `json:"activeItem"`
	ActivePortfolio *Portfolio     `json:"activePortfolio"`
	SearchOpen      bool           `json:"searchOpen"`
	SearchQuery     string         `json:"searchQuery"`
	Notifications   []Notification `json:"notifications"`
	UnreadCount     int            `json:"unreadCount"`
	Portfolios      []Portfolio    `json:"portfolios"`
	MenuItems       []MenuItem     `json:"menuItems"`
}
