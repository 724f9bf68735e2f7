package research

import (
	"fmt"
	"strings"

	"github.com/shelfmetrics/enrich-cli/internal/model"
)

// PlannerConfig parameterizes query generation.
type PlannerConfig struct {
	// QueryCap truncates every category list (mode-dependent).
	QueryCap int
	// CatalogDomains are preferred logistics sources.
	CatalogDomains []string
	// RetailerDomains feed the site-scoped compatibility queries.
	RetailerDomains []string
	// OEMDomains feed the brand-site compatibility query when the brand has
	// no obvious domain of its own.
	OEMDomains []string
}

// Planner builds template-based query plans for the categories still
// missing from the record. Pure and deterministic: the same record state
// always yields the same plan.
type Planner struct {
	cfg PlannerConfig
}

// NewPlanner creates a Planner.
func NewPlanner(cfg PlannerConfig) *Planner {
	return &Planner{cfg: cfg}
}

// Plan emits the ordered query plan for the missing categories.
// escalate marks categories whose previous consensus failed; those get
// additional OEM/retailer-scoped queries before truncation.
func (p *Planner) Plan(rec *model.EnrichedRecord, missing []model.Category, escalate map[model.Category]bool) model.ResearchPlan {
	plan := model.ResearchPlan{Categories: make(map[model.Category]model.CategoryPlan)}

	need := make(map[model.Category]bool, len(missing))
	for _, c := range missing {
		need[c] = true
	}

	brand := rec.Identity.Brand
	modelNo := rec.Identity.Model
	subject := strings.TrimSpace(brand + " " + modelNo)
	if subject == "" {
		subject = rec.Identity.Raw
	}

	for _, cat := range model.AllCategories() {
		if !need[cat] {
			plan.Categories[cat] = model.CategoryPlan{Needed: false}
			continue
		}

		var queries []string
		switch cat {
		case model.CategoryLogistics:
			for _, d := range p.cfg.CatalogDomains {
				queries = append(queries, fmt.Sprintf("site:%s %s", d, subject))
			}
			queries = append(queries,
				fmt.Sprintf("%s package dimensions mm weight", subject),
				fmt.Sprintf("%s shipping box size specifications", subject),
			)
		case model.CategoryCompatibility:
			queries = append(queries, p.compatibilityQueries(brand, subject, escalate[cat])...)
		case model.CategoryRelated:
			queries = append(queries,
				fmt.Sprintf("%s alternative compatible cartridges", subject),
				fmt.Sprintf("%s series supplies family", subject),
			)
		case model.CategoryImages:
			queries = append(queries,
				fmt.Sprintf("%s product photo white background", subject),
				fmt.Sprintf("%s cartridge image", subject),
			)
		case model.CategoryFAQ:
			queries = append(queries,
				fmt.Sprintf("%s frequently asked questions", subject),
				fmt.Sprintf("%s installation page yield troubleshooting", subject),
			)
		}

		if p.cfg.QueryCap > 0 && len(queries) > p.cfg.QueryCap {
			queries = queries[:p.cfg.QueryCap]
		}
		plan.Categories[cat] = model.CategoryPlan{
			Needed:    true,
			Escalated: escalate[cat],
			Queries:   queries,
		}
	}

	return plan
}

// compatibilityQueries builds the brand-site query, two retailer-site
// queries, and one generic query. Escalation prepends extra OEM/retailer
// queries so they survive truncation.
func (p *Planner) compatibilityQueries(brand, subject string, escalated bool) []string {
	var queries []string

	brandSite := ""
	if token := brandToken(brand); token != "" {
		brandSite = token + ".com"
	} else if len(p.cfg.OEMDomains) > 0 {
		brandSite = p.cfg.OEMDomains[0]
	}

	if escalated {
		if brandSite != "" {
			queries = append(queries, fmt.Sprintf("site:%s %s supported printer models", brandSite, subject))
		}
		for _, d := range p.cfg.RetailerDomains {
			queries = append(queries, fmt.Sprintf("site:%s %s works with", d, subject))
			break
		}
	}

	if brandSite != "" {
		queries = append(queries, fmt.Sprintf("site:%s %s compatible printers", brandSite, subject))
	}
	for i, d := range p.cfg.RetailerDomains {
		if i >= 2 {
			break
		}
		queries = append(queries, fmt.Sprintf("site:%s %s compatibility", d, subject))
	}
	queries = append(queries, fmt.Sprintf("%s compatible printer list", subject))

	return queries
}
