package model

import "time"

// Stage values as they appear in the CRM export. Cell values are not
// normalized (only column labels are), so these match the source casing.
const (
	StageWon  = "Ganho"
	StageLost = "Perda"
)

// Canonical column names produced by the schema normalizer. The feature
// name list and all attribute lookups are keyed by these.
const (
	ColName             = "NOME_DA_OPORTUNIDADE"
	ColOrigin           = "ORIGEM"
	ColStage            = "ETAPA_ATUAL"
	ColESN              = "ESN"
	ColGSN              = "GSN"
	ColActivityType     = "TIPO_DE_ATUACAO"
	ColProduct          = "PRODUTO_DA_OPORTUNIDADE"
	ColSuggestedProduct = "PRODUTO_SUGERIDO"
	ColSuggestedValue   = "VALOR_SUGERIDO"
	ColSoldValue        = "VALOR_VENDIDO"
	ColSearchCycleDate  = "DATA_CICLO_DE_BUSCA"
	ColSaleDate         = "DATA_DA_VENDA"
	ColCNPJ             = "CNPJ"
	ColHumanForecast    = "PREVISAO_DE_FECHAMENTO"
	ColHumanFeeling     = "FEELING_FECHAMENTO"

	ColCNAE               = "CNAE_FISCAL"
	ColCompanySize        = "PORTE"
	ColLegalNature        = "NATUREZA_JURIDICA"
	ColActivityStart      = "DATA_INICIO_ATIVIDADE"
	ColRegistrationStatus = "SITUACAO_CADASTRAL"
	ColState              = "UF"
	ColMunicipality       = "MUNICIPIO"
)

// Enrichment holds company-registry attributes keyed by CNPJ. All fields
// are optional; a record that was never enriched (or whose CNPJ failed
// cleaning) carries nils throughout.
type Enrichment struct {
	CNAE               *string `json:"CNAE_FISCAL,omitempty"`
	CompanySize        *string `json:"PORTE,omitempty"`
	LegalNature        *string `json:"NATUREZA_JURIDICA,omitempty"`
	ActivityStart      *string `json:"DATA_INICIO_ATIVIDADE,omitempty"`
	RegistrationStatus *string `json:"SITUACAO_CADASTRAL,omitempty"`
	State              *string `json:"UF,omitempty"`
	Municipality       *string `json:"MUNICIPIO,omitempty"`
}

// Populated reports whether any registry attribute is set. Used to skip
// re-fetching on idempotent enrichment re-runs.
func (e Enrichment) Populated() bool {
	return e.CNAE != nil || e.CompanySize != nil || e.LegalNature != nil ||
		e.ActivityStart != nil || e.RegistrationStatus != nil ||
		e.State != nil || e.Municipality != nil
}

// Merge copies non-empty fields from other into e, leaving existing values
// untouched where other is nil or empty.
func (e *Enrichment) Merge(other Enrichment) {
	merge := func(dst **string, src *string) {
		if src != nil && *src != "" {
			*dst = src
		}
	}
	merge(&e.CNAE, other.CNAE)
	merge(&e.CompanySize, other.CompanySize)
	merge(&e.LegalNature, other.LegalNature)
	merge(&e.ActivityStart, other.ActivityStart)
	merge(&e.RegistrationStatus, other.RegistrationStatus)
	merge(&e.State, other.State)
	merge(&e.Municipality, other.Municipality)
}

// Opportunity is a single sales pipeline entry after schema normalization.
// Every attribute is optional; presence checks happen once here instead of
// being scattered through the pipeline.
type Opportunity struct {
	Name             *string    `json:"NOME_DA_OPORTUNIDADE,omitempty"`
	Origin           *string    `json:"ORIGEM,omitempty"`
	Stage            *string    `json:"ETAPA_ATUAL,omitempty"`
	ESN              *string    `json:"ESN,omitempty"`
	GSN              *string    `json:"GSN,omitempty"`
	ActivityType     *string    `json:"TIPO_DE_ATUACAO,omitempty"`
	Product          *string    `json:"PRODUTO_DA_OPORTUNIDADE,omitempty"`
	SuggestedProduct *string    `json:"PRODUTO_SUGERIDO,omitempty"`
	SuggestedValue   *float64   `json:"VALOR_SUGERIDO,omitempty"`
	SoldValue        *float64   `json:"VALOR_VENDIDO,omitempty"`
	SearchCycleStart *time.Time `json:"DATA_CICLO_DE_BUSCA,omitempty"`
	SaleDate         *time.Time `json:"DATA_DA_VENDA,omitempty"`
	CNPJ             *string    `json:"CNPJ,omitempty"`
	HumanForecast    *time.Time `json:"PREVISAO_DE_FECHAMENTO,omitempty"`
	HumanFeeling     *float64   `json:"FEELING_FECHAMENTO,omitempty"`

	Enrichment Enrichment `json:"enrichment,omitempty"`
}

// Open reports whether the opportunity has not closed yet. The sale date is
// the closure marker: open records have none.
func (o Opportunity) Open() bool {
	return o.SaleDate == nil
}

// Categorical returns the value of a categorical attribute by canonical
// column name. Missing attributes return ("", false).
func (o Opportunity) Categorical(col string) (string, bool) {
	var p *string
	switch col {
	case ColOrigin:
		p = o.Origin
	case ColStage:
		p = o.Stage
	case ColESN:
		p = o.ESN
	case ColGSN:
		p = o.GSN
	case ColActivityType:
		p = o.ActivityType
	case ColProduct:
		p = o.Product
	case ColSuggestedProduct:
		p = o.SuggestedProduct
	case ColCNAE:
		p = o.Enrichment.CNAE
	case ColCompanySize:
		p = o.Enrichment.CompanySize
	case ColLegalNature:
		p = o.Enrichment.LegalNature
	case ColRegistrationStatus:
		p = o.Enrichment.RegistrationStatus
	case ColState:
		p = o.Enrichment.State
	case ColMunicipality:
		p = o.Enrichment.Municipality
	}
	if p == nil || *p == "" {
		return "", false
	}
	return *p, true
}

// Numeric returns the value of a numeric attribute by canonical column
// name. Missing attributes return (0, false); the feature builder encodes
// them as zero per the missing-value policy.
func (o Opportunity) Numeric(col string) (float64, bool) {
	var p *float64
	switch col {
	case ColSuggestedValue:
		p = o.SuggestedValue
	case ColSoldValue:
		p = o.SoldValue
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}
