// Package breakdown computes the cost composition of an AHS job code
// from the normalized component datasets: labor, equipment, and
// material references with quantities, priced against their catalogs.
package breakdown

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/rencanakan/ahsmatch/internal/errors"
)

// Component types as they appear in ahs_components.csv.
const (
	typeLabor     = "labor"
	typeEquipment = "equipment"
	typeMaterial  = "material"
)

// Totals are money values rounded half-up to two decimals.
type Totals struct {
	Labor          float64 `json:"labor"`
	Equipment      float64 `json:"equipment"`
	LaborEquipment float64 `json:"labor_equipment"`
	Materials      float64 `json:"materials"`
	Overall        float64 `json:"overall"`
}

// MaterialDetail is one material line of a breakdown. Pointer fields
// render as null when the component catalog has no data for them.
type MaterialDetail struct {
	ID        string   `json:"id"`
	Code      *string  `json:"code"`
	Name      *string  `json:"name"`
	Unit      *string  `json:"unit"`
	Quantity  *float64 `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
	TotalCost *float64 `json:"total_cost"`
	Brand     *string  `json:"brand"`
}

// Components groups the detail lines. Only materials are itemized;
// labor and equipment appear as totals.
type Components struct {
	Materials []MaterialDetail `json:"materials"`
}

// Breakdown is the cost composition of one AHS job code.
type Breakdown struct {
	Name       *string    `json:"name"`
	UnitPrice  *float64   `json:"unit_price"`
	Totals     Totals     `json:"totals"`
	Components Components `json:"components"`
}

// Service serves breakdowns from a directory of normalized CSV
// datasets. Each dataset loads lazily on first use and stays cached for
// the life of the service.
type Service struct {
	dir string
	log *zap.Logger

	laborOnce    sync.Once
	laborCatalog map[string]componentEntry

	equipmentOnce    sync.Once
	equipmentCatalog map[string]componentEntry

	materialOnce    sync.Once
	materialCatalog map[string]componentEntry

	mainOnce    sync.Once
	mainCatalog map[string]mainEntry

	componentsOnce   sync.Once
	componentsByCode map[string][]componentRef
}

// NewService returns a breakdown service over the data directory.
func NewService(dir string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{dir: dir, log: log}
}

// CanonicalCode normalizes an AHS job code: upper-cased, with dash,
// space, slash, and underscore unified to dots, repeats collapsed, and
// leading or trailing dots stripped.
func CanonicalCode(code string) string {
	text := strings.ToUpper(strings.TrimSpace(code))
	if text == "" {
		return ""
	}
	unified := strings.NewReplacer("-", ".", " ", ".", "/", ".", "_", ".").Replace(text)
	for strings.Contains(unified, "..") {
		unified = strings.ReplaceAll(unified, "..", ".")
	}
	return strings.Trim(unified, ".")
}

// Breakdown computes the cost composition for a job code. A code with
// no component rows reports apperrors.ErrNotFound.
func (s *Service) Breakdown(code string) (*Breakdown, error) {
	canonical := CanonicalCode(code)
	if canonical == "" {
		return nil, fmt.Errorf("ahs code %q: %w", code, apperrors.ErrNotFound)
	}
	refs := s.components()[canonical]
	if len(refs) == 0 {
		return nil, fmt.Errorf("ahs code %q: %w", code, apperrors.ErrNotFound)
	}

	catalogs := map[string]map[string]componentEntry{
		typeLabor:     s.labor(),
		typeEquipment: s.equipment(),
		typeMaterial:  s.material(),
	}

	labor := decimal.Zero
	equipment := decimal.Zero
	materials := decimal.Zero
	details := make([]MaterialDetail, 0)

	for _, ref := range refs {
		entry, known := catalogs[ref.Type][ref.ComponentID]
		quantity := s.refQuantity(ref)

		var totalCost *decimal.Decimal
		if known && entry.UnitPrice != nil {
			cost := quantity.Mul(*entry.UnitPrice)
			totalCost = &cost
		}

		switch ref.Type {
		case typeLabor:
			labor = addCost(labor, totalCost)
		case typeEquipment:
			equipment = addCost(equipment, totalCost)
		case typeMaterial:
			materials = addCost(materials, totalCost)
			details = append(details, MaterialDetail{
				ID:        ref.ComponentID,
				Code:      strPtr(entry.Code),
				Name:      strPtr(entry.Name),
				Unit:      strPtr(entry.Unit),
				Quantity:  quantityPtr(&quantity),
				UnitPrice: moneyPtr(entry.UnitPrice),
				TotalCost: moneyPtr(totalCost),
				Brand:     strPtr(entry.Brand),
			})
		}
	}

	laborEquipment := labor.Add(equipment)
	overall := laborEquipment.Add(materials)

	main := s.main()[canonical]
	return &Breakdown{
		Name:      strPtr(main.Name),
		UnitPrice: moneyPtr(main.UnitPrice),
		Totals: Totals{
			Labor:          money(labor),
			Equipment:      money(equipment),
			LaborEquipment: money(laborEquipment),
			Materials:      money(materials),
			Overall:        money(overall),
		},
		Components: Components{Materials: details},
	}, nil
}

// refQuantity resolves a component quantity, falling back from the
// quantity column to the coefficient column, then zero.
func (s *Service) refQuantity(ref componentRef) decimal.Decimal {
	if d := s.parseDecimal(ref.Quantity); d != nil {
		return *d
	}
	if d := s.parseDecimal(ref.Coefficient); d != nil {
		return *d
	}
	return decimal.Zero
}

func addCost(total decimal.Decimal, cost *decimal.Decimal) decimal.Decimal {
	if cost == nil {
		return total
	}
	return total.Add(*cost)
}

// Money rounds half away from zero to cents, quantities to four
// decimals, matching how the datasets were produced.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func moneyPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := money(*d)
	return &v
}

func quantityPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := d.Round(4).InexactFloat64()
	return &v
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
