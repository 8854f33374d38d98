package classifier

import "contact-triage-go/internal/model"

// Keywords is the keyword table consulted by the keyword classifiers
type Keywords struct {
	Sales   []string
	Support []string
}

// DefaultKeywords returns a fresh copy of the built-in Spanish and English tables
func DefaultKeywords() Keywords {
	return Keywords{
		Sales: []string{
			"comprar", "compra", "precio", "costo", "cuesta", "cotizacion",
			"presupuesto", "venta", "producto", "oferta", "descuento", "comercial",
			"adquirir", "contratar", "me interesa", "licencia",
			"buy", "price", "pricing", "quote", "purchase", "sale", "offer",
			"discount", "cost", "hire", "subscription",
		},
		Support: []string{
			"problema", "error", "bug", "ayuda", "soporte", "tecnico", "falla",
			"no funciona", "roto", "arreglar", "reparar", "urgente", "emergencia",
			"no puedo",
			"support", "help", "issue", "technical", "assistance", "trouble",
			"fix", "repair", "maintenance", "broken", "not working", "crash",
		},
	}
}

// forCategory returns the keywords of a category, nil for other
func (k Keywords) forCategory(c model.Category) []string {
	switch c {
	case model.CategorySales:
		return k.Sales
	case model.CategorySupport:
		return k.Support
	}
	return nil
}

// normalized returns a copy with every keyword normalized and empty entries dropped
func (k Keywords) normalized() Keywords {
	return Keywords{
		Sales:   normalizeAll(k.Sales),
		Support: normalizeAll(k.Support),
	}
}

func normalizeAll(words []string) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		n := normalize(w)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
