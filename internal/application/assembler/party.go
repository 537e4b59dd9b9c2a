package assembler

import (
	"strings"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/record"
)

// Defaults applied to blank party fields.
const (
	DefaultPhone                = "0000000"
	DefaultAddress              = "SIN DIRECCION"
	DefaultEmail                = "sincorreo@sincorreo.com"
	DefaultMerchantRegistration = "0000000-00"
	DefaultDV                   = "0"
)

// genericCustomerID is the identification used for anonymous final consumers.
const genericCustomerID = "222222222222"

func partyLookups(p record.Party) []catalog.Lookup {
	return []catalog.Lookup{
		catalog.NewLookup(catalog.TypeDocumentIdentification, p.DocumentType),
		catalog.NewLookup(catalog.TypeOrganization, p.OrganizationType),
		catalog.NewLookup(catalog.TypeRegime, p.Regime),
		catalog.NewLookup(catalog.TypeLiability, p.Liability),
		catalog.NewLookup(catalog.Municipality, p.Municipality),
	}
}

func buildParty(p record.Party, codes catalog.Codes) (*document.Party, error) {
	party := &document.Party{
		Name:                 p.Name,
		Address:              orDefault(p.Address, DefaultAddress),
		Phone:                orDefault(p.Phone, DefaultPhone),
		Email:                orDefault(p.Email, DefaultEmail),
		MerchantRegistration: orDefault(p.MerchantRegistration, DefaultMerchantRegistration),
	}
	party.IdentificationNumber, party.DV = splitIdentification(p.Identification, p.DV)

	ids := []struct {
		name   catalog.Name
		code   string
		target *int
	}{
		{catalog.TypeDocumentIdentification, p.DocumentType, &party.TypeDocumentIdentificationID},
		{catalog.TypeOrganization, p.OrganizationType, &party.TypeOrganizationID},
		{catalog.TypeRegime, p.Regime, &party.TypeRegimeID},
		{catalog.TypeLiability, p.Liability, &party.TypeLiabilityID},
		{catalog.Municipality, p.Municipality, &party.MunicipalityID},
	}
	for _, id := range ids {
		value, err := codes.MustID(id.name, id.code)
		if err != nil {
			return nil, err
		}
		*id.target = value
	}
	return party, nil
}

// splitIdentification separates an identification carrying "-DV". The DV
// embedded in the identification wins over the DV field.
func splitIdentification(identification, dv string) (string, string) {
	identification = strings.TrimSpace(identification)
	if base, embedded, ok := strings.Cut(identification, "-"); ok {
		if i := strings.LastIndex(embedded, "-"); i >= 0 {
			embedded = embedded[i+1:]
		}
		if embedded = strings.TrimSpace(embedded); embedded != "" {
			return strings.TrimSpace(base), embedded
		}
		identification = strings.TrimSpace(base)
	}
	return identification, orDefault(dv, DefaultDV)
}

// shouldSendMail requires a real email, a real customer and an explicit flag.
func shouldSendMail(p record.Party, flag string) bool {
	email := strings.TrimSpace(p.Email)
	if email == "" || strings.EqualFold(email, DefaultEmail) || !strings.Contains(email, "@") {
		return false
	}
	id, _ := splitIdentification(p.Identification, p.DV)
	if isPlaceholderID(id) {
		return false
	}
	switch strings.ToUpper(strings.TrimSpace(flag)) {
	case "S", "SI", "1", "TRUE":
		return true
	default:
		return false
	}
}

func isPlaceholderID(id string) bool {
	if id == "" || id == "0" || id == genericCustomerID {
		return true
	}
	return strings.Count(id, id[:1]) == len(id)
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
