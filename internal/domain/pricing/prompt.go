package pricing

import (
	"fmt"
	"strings"

	"traiteur_devis/internal/domain/entities"
)

// BuildAssistantPrompt renders the pricing grid and the order into the French
// instruction text sent to the assistant. The output format section mirrors the
// BudgetData JSON contract.
func BuildAssistantPrompt(order entities.Order, rules Rules) string {
	var b strings.Builder

	b.WriteString("Tu es l'assistant de chiffrage d'un traiteur. Calcule un devis détaillé pour la commande ci-dessous.\n\n")

	b.WriteString("RÈGLES DE TARIFICATION\n")
	b.WriteString("Prix par personne dégressif selon le nombre d'invités :\n")
	for _, mt := range []entities.MenuType{entities.MenuTypeLunch, entities.MenuTypeDinner} {
		fmt.Fprintf(&b, "- %s :\n", menuTypeLabel(mt))
		for _, band := range rules.PriceBands[mt] {
			if band.MaxGuests == 0 {
				fmt.Fprintf(&b, "  - %d invités et plus : %.2f à %.2f € par personne\n", band.MinGuests, band.MinPrice, band.MaxPrice)
				continue
			}
			fmt.Fprintf(&b, "  - %d à %d invités : %.2f à %.2f € par personne\n", band.MinGuests, band.MaxGuests, band.MinPrice, band.MaxPrice)
		}
	}
	fmt.Fprintf(&b, "- Répartition du prix par personne : entrées %.0f%%, plats %.0f%%, dessert %.0f%%, partagée également entre les plats d'une même catégorie.\n",
		rules.CategoryShares.Entrees*100, rules.CategoryShares.Viandes*100, rules.CategoryShares.Desserts*100)
	b.WriteString("- Chaque plat est une ligne : quantity = nombre d'invités, lineTotal = quantity x unitPrice.\n")
	fmt.Fprintf(&b, "- Sans dessert choisi, une ligne \"%s\".\n", rules.DefaultDessertLabel)
	fmt.Fprintf(&b, "- TVA menu %.0f%%. tax = arrondi(totalHT x taxRate, 2), totalTTC = totalHT + tax.\n", rules.MenuTaxRate*100)
	fmt.Fprintf(&b, "- Matériel (uniquement si du matériel est demandé) : %.2f € x invités x nombre d'équipements, TVA %.0f%%.\n",
		rules.Material.PerPersonCost, rules.MaterialTaxRate*100)
	fmt.Fprintf(&b, "- Déplacement (uniquement au-delà de %.0f km) : %.2f € par km, TVA %.0f%%.\n",
		rules.Deplacement.FreeDistanceKm, rules.Deplacement.RatePerKm, rules.DeplacementTaxRate*100)
	fmt.Fprintf(&b, "- Déjeuner uniquement : remise de %.0f%% (\"%s\") sur le total TTC de toutes les sections. totalHT et tax des totaux restent avant remise, seul totalTTC est réduit.\n",
		rules.LunchDiscount.Percentage, rules.LunchDiscount.Reason)
	b.WriteString("- Tous les montants sont arrondis au centime.\n\n")

	b.WriteString("COMMANDE\n")
	c := order.ContactData
	fmt.Fprintf(&b, "- Client : %s <%s>\n", c.Name, c.Email)
	fmt.Fprintf(&b, "- Événement : %s le %s, %s\n", c.EventType, c.EventDate, c.Address)
	fmt.Fprintf(&b, "- Nombre d'invités : %d\n", c.GuestCount)
	fmt.Fprintf(&b, "- Formule : %s\n", menuTypeLabel(order.MenuType))
	fmt.Fprintf(&b, "- Entrées : %s\n", joinLabels(order.Entrees, rules.Catalog.Entrees))
	fmt.Fprintf(&b, "- Plats : %s\n", joinLabels(order.Viandes, rules.Catalog.Viandes))
	if strings.TrimSpace(order.Dessert) == "" {
		b.WriteString("- Dessert : aucun\n")
	} else {
		fmt.Fprintf(&b, "- Dessert : %s\n", labelFor(rules.Catalog.Desserts, order.Dessert))
	}
	if len(order.Extras.Equipment) > 0 {
		fmt.Fprintf(&b, "- Matériel : %s\n", joinLabels(order.Extras.Equipment, rules.Catalog.Equipment))
	} else {
		b.WriteString("- Matériel : aucun\n")
	}
	fmt.Fprintf(&b, "- Distance : %.0f km\n", order.Extras.DistanceKm)
	if notes := notesFor(order.Extras); notes != "" {
		fmt.Fprintf(&b, "- Remarques : %s\n", strings.ReplaceAll(notes, "\n", " / "))
	}

	b.WriteString("\nFORMAT DE RÉPONSE\n")
	b.WriteString("Réponds uniquement avec un objet JSON, sans texte autour ni bloc de code, de la forme :\n")
	b.WriteString(`{"clientInfo":{"name":"","email":""},` +
		`"menu":{"pricePerPerson":0,"guestCount":0,"entrees":[{"name":"","quantity":0,"unitPrice":0,"lineTotal":0}],` +
		`"viandes":[],"desserts":[],"accompaniments":[],"totalHT":0,"tax":0,"taxRate":0,"totalTTC":0},` +
		`"material":null,"deplacement":null,"service":null,` +
		`"totals":{"totalHT":0,"tax":0,"totalTTC":0,"discount":{"reason":"","percentage":0,"amount":0}},"notes":""}`)
	b.WriteString("\nLes sections absentes valent null. material : {\"items\":[...],\"totalHT\",\"tax\",\"taxRate\",\"totalTTC\"}. ")
	b.WriteString("deplacement : {\"distanceKm\",\"ratePerKm\",\"totalHT\",\"tax\",\"taxRate\",\"totalTTC\"}. ")
	b.WriteString("discount vaut null hors déjeuner.\n")
	return b.String()
}

func menuTypeLabel(mt entities.MenuType) string {
	switch mt {
	case entities.MenuTypeLunch:
		return "déjeuner"
	case entities.MenuTypeDinner:
		return "dîner"
	}
	return string(mt)
}

func joinLabels(ids []string, catalog map[string]string) string {
	if len(ids) == 0 {
		return "aucun"
	}
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		labels = append(labels, labelFor(catalog, id))
	}
	return strings.Join(labels, ", ")
}
