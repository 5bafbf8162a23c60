package resource

// Presentation is the display metadata derived from a Node. It is computed on
// demand by the UI layer and never stored on the entity.
type Presentation struct {
	Icon        string
	Label       string
	Description string
	Tooltip     string
	Collapsible bool
}

// Present derives the display metadata for n.
func Present(n Node) Presentation {
	p := Presentation{Label: n.DisplayName()}
	switch n.Kind {
	case KindAccountGroup:
		p.Icon = "◆"
		p.Tooltip = "Azure Subscription: " + p.Label
		p.Collapsible = true
	case KindDataAccount:
		p.Icon = "◎"
		p.Tooltip = "Cosmos DB Account: " + p.Label
		p.Collapsible = true
	case KindDatabase:
		p.Icon = "▤"
		p.Tooltip = "Cosmos DB Database: " + p.Label
		p.Collapsible = true
	case KindContainer:
		p.Icon = "■"
		p.Tooltip = "Cosmos DB Container: " + p.Label
		if n.Container.IsEmpty {
			p.Icon = "□"
			p.Description = "(Empty)"
			p.Tooltip += " (Empty)"
		}
	case KindNoResourcesFound, KindInsufficientPermission:
		p.Icon = "!"
		p.Tooltip = p.Label
	}
	return p
}
