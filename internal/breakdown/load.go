package breakdown

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// componentEntry is one priced row of a labor, equipment, or material
// catalog. A nil UnitPrice means the dataset has no usable price.
type componentEntry struct {
	Code      string
	Name      string
	Unit      string
	UnitPrice *decimal.Decimal
	Brand     string
}

// mainEntry is one row of the AHS main dataset.
type mainEntry struct {
	Name      string
	UnitPrice *decimal.Decimal
}

// componentRef ties an AHS code to one priced component. Quantity and
// coefficient stay raw here; parsing happens at computation time.
type componentRef struct {
	Type        string
	ComponentID string
	Quantity    string
	Coefficient string
}

func (s *Service) labor() map[string]componentEntry {
	s.laborOnce.Do(func() {
		s.laborCatalog = s.loadComponentCatalog("labor.csv", false)
	})
	return s.laborCatalog
}

func (s *Service) equipment() map[string]componentEntry {
	s.equipmentOnce.Do(func() {
		s.equipmentCatalog = s.loadComponentCatalog("equipment.csv", false)
	})
	return s.equipmentCatalog
}

func (s *Service) material() map[string]componentEntry {
	s.materialOnce.Do(func() {
		s.materialCatalog = s.loadComponentCatalog("materials.csv", true)
	})
	return s.materialCatalog
}

func (s *Service) main() map[string]mainEntry {
	s.mainOnce.Do(func() {
		s.mainCatalog = s.loadMainCatalog()
	})
	return s.mainCatalog
}

func (s *Service) components() map[string][]componentRef {
	s.componentsOnce.Do(func() {
		s.componentsByCode = s.loadComponents()
	})
	return s.componentsByCode
}

func (s *Service) loadComponentCatalog(filename string, withBrand bool) map[string]componentEntry {
	catalog := make(map[string]componentEntry)
	records, header, ok := s.readCSV(filename)
	if !ok {
		return catalog
	}

	for _, rec := range records {
		id := strings.TrimSpace(field(rec, header, "id"))
		if id == "" {
			continue
		}
		entry := componentEntry{
			Code:      strings.TrimSpace(field(rec, header, "code")),
			Name:      strings.TrimSpace(field(rec, header, "name")),
			Unit:      strings.TrimSpace(field(rec, header, "unit")),
			UnitPrice: s.parseDecimal(field(rec, header, "unit_price")),
		}
		if withBrand {
			entry.Brand = strings.TrimSpace(field(rec, header, "brand"))
		}
		catalog[id] = entry
	}
	return catalog
}

func (s *Service) loadMainCatalog() map[string]mainEntry {
	catalog := make(map[string]mainEntry)
	records, header, ok := s.readCSV("ahs_main.csv")
	if !ok {
		return catalog
	}

	for _, rec := range records {
		canonical := CanonicalCode(field(rec, header, "code"))
		if canonical == "" {
			continue
		}
		catalog[canonical] = mainEntry{
			Name:      strings.TrimSpace(field(rec, header, "name")),
			UnitPrice: s.parseDecimal(field(rec, header, "unit_price")),
		}
	}
	return catalog
}

func (s *Service) loadComponents() map[string][]componentRef {
	components := make(map[string][]componentRef)
	records, header, ok := s.readCSV("ahs_components.csv")
	if !ok {
		return components
	}

	for _, rec := range records {
		canonical := CanonicalCode(field(rec, header, "ahs_code"))
		compType := strings.ToLower(strings.TrimSpace(field(rec, header, "component_type")))
		componentID := strings.TrimSpace(field(rec, header, "component_id"))
		if canonical == "" || !validComponentType(compType) || componentID == "" {
			continue
		}
		components[canonical] = append(components[canonical], componentRef{
			Type:        compType,
			ComponentID: componentID,
			Quantity:    strings.TrimSpace(field(rec, header, "quantity")),
			Coefficient: strings.TrimSpace(field(rec, header, "coefficient")),
		})
	}
	return components
}

func validComponentType(t string) bool {
	return t == typeLabor || t == typeEquipment || t == typeMaterial
}

// readCSV reads a comma-separated dataset with a header row. A missing
// or unreadable file logs a warning and reports not-ok; callers serve
// empty catalogs in that case.
func (s *Service) readCSV(filename string) ([][]string, map[string]int, bool) {
	path := filepath.Join(s.dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("breakdown dataset missing", zap.String("path", path), zap.Error(err))
		return nil, nil, false
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		s.log.Warn("breakdown dataset unreadable", zap.String("path", path), zap.Error(err))
		return nil, nil, false
	}
	if len(records) == 0 {
		return nil, nil, false
	}

	header := make(map[string]int, len(records[0]))
	for i, cell := range records[0] {
		header[strings.ToLower(strings.TrimSpace(cell))] = i
	}
	return records[1:], header, true
}

func field(rec []string, header map[string]int, name string) string {
	idx, ok := header[name]
	if !ok || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

func (s *Service) parseDecimal(raw string) *decimal.Decimal {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		s.log.Debug("unparseable decimal in breakdown dataset", zap.String("value", raw))
		return nil
	}
	return &d
}
