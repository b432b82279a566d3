// seed_products genera un script SQL idempotente para poblar el catálogo de medicamentos
// a partir del export CSV del PPB (Pharmacy and Poisons Board).
//
// Uso: go run ./cmd/seed_products [ruta/ppb_products.csv]
// Columnas: name;generic_name;strength;dosage_form;schedule;ppb_registration_number
// El export viene en ISO-8859-1 con separador ';'. Se acepta también UTF-8 con --utf8.
// Escribe: internal/infrastructure/postgres/migrations/002_seed_products.sql
package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// productNamespace espacio de nombres para IDs deterministas: el mismo número PPB produce el mismo UUID.
var productNamespace = uuid.MustParse("3f0c9a4e-6a8b-4c1e-9f57-2d8e1b0a7c11")

type seedProduct struct {
	ID                    string
	Name                  string
	GenericName           string
	Strength              string
	DosageForm            string
	DrugSchedule          string
	PPBRegistrationNumber string
}

func main() {
	csvPath := "ppb_products.csv"
	utf8 := false
	for _, arg := range os.Args[1:] {
		if arg == "--utf8" {
			utf8 = true
			continue
		}
		csvPath = arg
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var in io.Reader = f
	if !utf8 {
		in = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	products, skipped, err := parseProducts(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_products.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, products); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d productos, %d filas omitidas\n", outPath, len(products), skipped)
}

// parseProducts lee el CSV y devuelve los productos válidos ordenados por número PPB.
// Filas sin nombre, sin número PPB o con schedule desconocido se omiten.
func parseProducts(r io.Reader) ([]seedProduct, int, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header := true
	skipped := 0
	byNumber := make(map[string]seedProduct)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		if header {
			header = false
			if len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "name") {
				continue
			}
		}
		if len(rec) < 6 {
			skipped++
			continue
		}
		p := seedProduct{
			Name:                  strings.TrimSpace(rec[0]),
			GenericName:           strings.TrimSpace(rec[1]),
			Strength:              strings.TrimSpace(rec[2]),
			DosageForm:            strings.TrimSpace(rec[3]),
			DrugSchedule:          normalizeSchedule(rec[4]),
			PPBRegistrationNumber: strings.TrimSpace(rec[5]),
		}
		if p.Name == "" || p.PPBRegistrationNumber == "" || !entity.ValidSchedule(p.DrugSchedule) {
			skipped++
			continue
		}
		p.ID = uuid.NewSHA1(productNamespace, []byte(p.PPBRegistrationNumber)).String()
		// filas repetidas: gana la última
		byNumber[p.PPBRegistrationNumber] = p
	}

	numbers := make([]string, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)
	out := make([]seedProduct, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, byNumber[n])
	}
	return out, skipped, nil
}

// normalizeSchedule acepta las variantes del export ("Schedule 1", "S2", "POM", "OTC").
func normalizeSchedule(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer(" ", "_", "-", "_").Replace(v)
	switch v {
	case "schedule_1", "s1", "1":
		return entity.ScheduleOne
	case "schedule_2", "s2", "2":
		return entity.ScheduleTwo
	case "prescription", "pom":
		return entity.SchedulePrescription
	case "pharmacy", "p":
		return entity.SchedulePharmacy
	case "otc", "gsl":
		return entity.ScheduleOTC
	}
	return v
}

func writeSQL(w io.Writer, products []seedProduct) error {
	var b strings.Builder
	b.WriteString("-- Catálogo de medicamentos (export PPB)\n")
	b.WriteString("-- Generado por cmd/seed_products\n\n")
	for _, p := range products {
		b.WriteString("INSERT INTO products (id, name, generic_name, strength, dosage_form, drug_schedule, ppb_registration_number)\n")
		fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', '%s', '%s', '%s', '%s')\n",
			p.ID, escapeSQL(p.Name), escapeSQL(p.GenericName), escapeSQL(p.Strength),
			escapeSQL(p.DosageForm), p.DrugSchedule, escapeSQL(p.PPBRegistrationNumber))
		b.WriteString("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, generic_name = EXCLUDED.generic_name,\n")
		b.WriteString("  strength = EXCLUDED.strength, dosage_form = EXCLUDED.dosage_form,\n")
		b.WriteString("  drug_schedule = EXCLUDED.drug_schedule, updated_at = now();\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
