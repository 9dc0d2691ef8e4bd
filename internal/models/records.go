package models

import "time"

// Date and timestamp layouts used across workbooks and JSON files.
const (
	DateBR     = "02/01/2006"
	DateTimeBR = "02/01/2006 15:04:05"
	DateFile   = "02-01-2006"
	DateISO    = "2006-01-02"
)

// OperationInterval is one appointment row from a fleet report: a unit
// performing one operation over a time window within a single day.
type OperationInterval struct {
	Date           time.Time
	UnitCode       string
	UnitType       string
	OperatorCode   string
	OperatorName   string
	Operation      string
	Group          string
	Start          time.Time
	End            time.Time
	DurationMin    float64
	AvgSpeed       float64
	HourMeterDelta float64
}

// DailyUnitSummary aggregates one unit's intervals for one day.
// Pointer fields stay nil when the underlying denominator is zero, so
// downstream writers can tell "no data" apart from a real zero.
type DailyUnitSummary struct {
	Date     time.Time
	UnitCode string
	UnitType string

	HorasRegistradas  float64
	HorasProdutivas   float64
	HorasImprodutivas float64
	GroupHours        map[string]float64

	HorasMotorLigado       float64
	PorcentagemMotorLigado float64
	HorasMotorOcioso       float64
	PorcentagemMotorOcioso float64

	TempoSemApontamento       float64
	PorcentagemSemApontamento float64

	DisponibilidadeMecanica *float64
	EficienciaEnergetica    float64
	EficienciaOperacional   float64

	TempoTotalManobras   float64
	QuantidadeManobras   int
	TempoMedioManobras   float64
	TempoTotalTransbordo float64
	QuantidadeTransbordos int
	TempoMedioTransbordo float64

	VelColheitaMedia      *float64
	VelDeslVazioMedia     *float64
	VelDeslCarregadoMedia *float64
}

// DailyOperatorSummary aggregates one operator's intervals for one day,
// split by the equipment type they operated.
type DailyOperatorSummary struct {
	Date         time.Time
	OperatorCode string
	OperatorName string
	UnitType     string
	FrotasNoDia  string

	HorasRegistradas  float64
	HorasProdutivas   float64
	HorasImprodutivas float64
	GroupHours        map[string]float64

	HorasMotorLigado       float64
	PorcentagemMotorLigado float64
	HorasMotorOcioso       float64
	PorcentagemMotorOcioso float64

	TempoSemApontamento       float64
	PorcentagemSemApontamento float64

	EficienciaEnergetica  float64
	EficienciaOperacional float64

	TempoTotalManobras   float64
	QuantidadeManobras   int
	TempoMedioManobras   float64
	TempoTotalTransbordo float64
	QuantidadeTransbordos int
	TempoMedioTransbordo float64

	VelColheitaMedia      *float64
	VelDeslVazioMedia     *float64
	VelDeslCarregadoMedia *float64
}

// PeriodUnitSummary rolls a unit's daily summaries up over the whole
// reporting period.
type PeriodUnitSummary struct {
	UnitCode string
	UnitType string

	HorasRegistradas  float64
	HorasProdutivas   float64
	HorasImprodutivas float64
	GroupHours        map[string]float64

	HorasMotorLigado    float64
	HorasMotorOcioso    float64
	TempoSemApontamento float64

	DiasComDados            int
	HorasMediaPorDia        float64
	HorasOciosoMediaPorDia  float64
	DisponibilidadeMecanica *float64
	EficienciaEnergetica    float64
	EficienciaOperacional   float64

	PorcentagemMotorLigado    float64
	PorcentagemMotorOcioso    float64
	PorcentagemSemApontamento float64
}

// PeriodOperatorSummary rolls an operator's daily summaries up over the
// whole reporting period.
type PeriodOperatorSummary struct {
	OperatorCode string
	OperatorName string
	UnitType     string

	HorasRegistradas  float64
	HorasProdutivas   float64
	HorasImprodutivas float64
	GroupHours        map[string]float64

	HorasMotorLigado    float64
	HorasMotorOcioso    float64
	TempoSemApontamento float64

	DiasComDados           int
	HorasMediaPorDia       float64
	HorasOciosoMediaPorDia float64
	EficienciaEnergetica   float64
	EficienciaOperacional  float64

	PorcentagemMotorLigado    float64
	PorcentagemMotorOcioso    float64
	PorcentagemSemApontamento float64
}

// TopOffender is one of the largest unproductive operations of a unit
// on a given day.
type TopOffender struct {
	Date          time.Time
	UnitCode      string
	UnitType      string
	Operation     string
	DuracaoImprod float64
	TotalHorasDia float64
	Porcentagem   float64
}

// IntervalEntry is a normalized operation interval kept for timeline
// views (gantt, washing and roller maintenance reports).
type IntervalEntry struct {
	Date      time.Time
	UnitCode  string
	UnitType  string
	Operation string
	Group     string
	Start     time.Time
	End       time.Time
}
