package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// runAddWizard collects a task interactively and returns the force-add
// text. Priority "normal" is the default and must not leak into the
// title, so it is only emitted when it is a recognized strip keyword.
func runAddWizard() (string, error) {
	var title, category, priority string
	category = "general"
	priority = "normal"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Titre").
				Placeholder("Appeler le notaire").
				Value(&title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("le titre est requis")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Catégorie").
				Options(huh.NewOptions("general", "easynode", "immobilier", "content", "personnel", "admin")...).
				Value(&category),
			huh.NewSelect[string]().
				Title("Priorité").
				Options(huh.NewOptions("normal", "important", "urgent")...).
				Value(&priority),
		),
	).WithShowHelp(false)

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("running add wizard: %w", err)
	}
	return composeForceAdd(title, category, priority), nil
}

// composeForceAdd builds the keyword-prefixed text the force-add parser
// expects.
func composeForceAdd(title, category, priority string) string {
	var parts []string
	if priority == "urgent" || priority == "important" {
		parts = append(parts, priority)
	}
	if category != "" && category != "general" {
		parts = append(parts, category)
	}
	parts = append(parts, strings.TrimSpace(title))
	return strings.Join(parts, " ")
}
