package bot

import (
	"fmt"
	"strings"

	"github.com/c360studio/bidflow/config"
)

// Prompts builds the system/user prompt pairs for the three generation
// stages. All operator-tunable text lives in configuration; this file only
// assembles it.
type Prompts struct {
	catalog   string
	style     string
	signature string
	portfolio []config.PortfolioLink
	rateCard  []config.RateCardEntry
}

// NewPrompts creates a prompt builder from the proposal and pricing
// configuration.
func NewPrompts(proposal config.ProposalConfig, pricing config.PricingConfig) *Prompts {
	return &Prompts{
		catalog:   proposal.ServiceCatalog,
		style:     proposal.WritingStyle,
		signature: proposal.Signature,
		portfolio: proposal.PortfolioLinks,
		rateCard:  pricing.RateCard,
	}
}

// MatchSystem is the service-match instruction: decide whether a project
// falls inside the service catalog and answer with a single token.
func (p *Prompts) MatchSystem() string {
	var b strings.Builder
	b.WriteString("You are a project qualifier for a freelance studio. ")
	b.WriteString("Decide whether the project below fits the services we offer.\n\n")
	b.WriteString("Our services:\n")
	b.WriteString(p.catalog)
	b.WriteString("\n\nRespond with exactly one word: MATCH if the project fits our services, NO MATCH if it does not. No explanation.")
	return b.String()
}

// MatchUser renders one project for the service-match decision.
func (p *Prompts) MatchUser(project EnrichedProject) string {
	return fmt.Sprintf("Project title: %s\n\nProject description:\n%s", project.Title, project.Description)
}

// PricingSystem is the estimation instruction: anchor on the rate card and
// answer in the exact machine-parseable shape the parser expects.
func (p *Prompts) PricingSystem() string {
	var b strings.Builder
	b.WriteString("You are a pricing analyst for a freelance studio. ")
	b.WriteString("Estimate a fair bid budget and delivery deadline for the project below.\n\n")
	if len(p.rateCard) > 0 {
		b.WriteString("Our base rates:\n")
		for _, entry := range p.rateCard {
			fmt.Fprintf(&b, "- %s: %d USD, %d days\n", entry.Service, int(entry.BudgetUSD), entry.TimelineDays)
		}
		b.WriteString("\n")
	}
	b.WriteString("Scale the estimate up or down from the closest base rate according to the project's scope. ")
	b.WriteString("Stay within the client's stated budget range when one is given.\n\n")
	b.WriteString("Respond with exactly one line in this format and nothing else:\n")
	b.WriteString("Budget: <integer> USD, Deadline: <integer> days")
	return b.String()
}

// PricingUser renders one project for estimation. Budget bounds are
// converted to USD so the model reasons in a single currency; the
// estimator converts the answer back to the listing currency.
func (p *Prompts) PricingUser(project EnrichedProject) string {
	minUSD := project.MinimumBudget * project.ExchangeRate
	maxUSD := project.MaximumBudget * project.ExchangeRate
	return fmt.Sprintf("Project title: %s\n\nClient budget range: %.0f-%.0f USD\n\nProject description:\n%s",
		project.Title, minUSD, maxUSD, project.Description)
}

// ComposeSystem is the bid-copy instruction: the operator's writing style
// with the signature substituted in, plus the portfolio links the copy may
// reference.
func (p *Prompts) ComposeSystem() string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(p.style, "{signature}", p.signature))
	if len(p.portfolio) > 0 {
		b.WriteString("\n\nPortfolio links:\n")
		for _, link := range p.portfolio {
			fmt.Fprintf(&b, "- %s: %s\n", link.Label, link.URL)
		}
	}
	return b.String()
}

// ComposeUser renders one project for bid composition.
func (p *Prompts) ComposeUser(project EnrichedProject) string {
	return fmt.Sprintf("Project title: %s\n\nProject description:\n%s", project.Title, project.Description)
}
