package consolidate

// Document is the per-day consolidated JSON consumed by the dashboard.
// Array sections carry one entry per fleet; each entry names the source
// that supplied its numbers.
type Document struct {
	Metadata Metadata           `json:"metadata"`
	Metas    map[string]float64 `json:"metas"`

	EficienciaEnergetica   []EficienciaEntry        `json:"eficiencia_energetica"`
	EficienciaOperacional  []EficienciaEntry        `json:"eficiencia_operacional"`
	HorasElevador          []ValorEntry             `json:"horas_elevador"`
	UsoGPS                 []UsoGPSEntry            `json:"uso_gps"`
	MediaVelocidade        []VelocidadeEntry        `json:"media_velocidade"`
	ManobrasFrotas         []ManobrasEntry          `json:"manobras_frotas"`
	MotorOcioso            []MotorOciosoEntry       `json:"motor_ocioso"`
	Disponibilidade        []DisponibilidadeEntry   `json:"disponibilidade_mecanica"`
	HorasPorFrota          []HorasFrotaEntry        `json:"horas_por_frota"`
	IntervalosOperacao     []IntervaloOperacao      `json:"intervalos_operacao"`
	Ofensores              []OfensorEntry           `json:"ofensores"`
	Lavagem                []ServicoEntry           `json:"lavagem"`
	Roletes                []ServicoEntry           `json:"roletes"`
	Producao               float64                  `json:"producao"`
	ProducaoTotal          []ProducaoTotal          `json:"producao_total"`
	ProducaoPorFrota       []ValorEntry             `json:"producao_por_frota"`
	Imagens                Imagens                  `json:"imagens"`
	DadosCase              map[string]CaseFleetData `json:"dados_case"`
}

// Metadata identifies the day, front and contributing sources.
type Metadata struct {
	Date        string   `json:"date"`
	Type        string   `json:"type"`
	Frente      string   `json:"frente"`
	GeneratedAt string   `json:"generated_at"`
	Fontes      []string `json:"fontes"`
}

// EficienciaEntry carries an efficiency percentage and the hours it was
// computed from.
type EficienciaEntry struct {
	ID            int     `json:"id"`
	Nome          string  `json:"nome"`
	Eficiencia    float64 `json:"eficiencia"`
	HorasMotor    float64 `json:"horasMotor"`
	HorasElevador float64 `json:"horasElevador"`
	Fonte         string  `json:"fonte"`
}

// ValorEntry is a generic per-fleet value.
type ValorEntry struct {
	ID    int     `json:"id"`
	Nome  string  `json:"nome"`
	Valor float64 `json:"valor"`
	Fonte string  `json:"fonte"`
}

type UsoGPSEntry struct {
	ID          int     `json:"id"`
	Nome        string  `json:"nome"`
	Porcentagem float64 `json:"porcentagem"`
	Fonte       string  `json:"fonte"`
}

type VelocidadeEntry struct {
	ID         int     `json:"id"`
	Nome       string  `json:"nome"`
	Velocidade float64 `json:"velocidade"`
	Fonte      string  `json:"fonte"`
}

// ManobrasEntry keeps the legacy display keys of the maneuver table.
type ManobrasEntry struct {
	Frota             string  `json:"Frota"`
	TempoTotal        float64 `json:"Tempo Total"`
	TempoMedio        float64 `json:"Tempo Médio"`
	IntervalosValidos int     `json:"Intervalos Válidos"`
	TempoTotalHHMM    string  `json:"Tempo Total (hh:mm)"`
	TempoMedioHHMM    string  `json:"Tempo Médio (hh:mm)"`
	Fonte             string  `json:"fonte"`
}

type MotorOciosoEntry struct {
	ID          int     `json:"id"`
	Nome        string  `json:"nome"`
	Percentual  float64 `json:"percentual"`
	TempoLigado float64 `json:"tempoLigado"`
	TempoOcioso float64 `json:"tempoOcioso"`
	Fonte       string  `json:"fonte"`
}

type DisponibilidadeEntry struct {
	ID              int     `json:"id"`
	Nome            string  `json:"nome"`
	Disponibilidade float64 `json:"disponibilidade"`
	HorasMotor      float64 `json:"horasMotor"`
	TempoManutencao float64 `json:"tempoManutencao"`
	Fonte           string  `json:"fonte"`
}

type HorasFrotaEntry struct {
	ID    int     `json:"id"`
	Nome  string  `json:"nome"`
	Frota string  `json:"frota"`
	Horas float64 `json:"horas"`
	Fonte string  `json:"fonte"`
}

// IntervaloOperacao is one Gantt bar of the day timeline.
type IntervaloOperacao struct {
	Equipamento  string  `json:"equipamento"`
	Tipo         string  `json:"tipo"`
	Inicio       string  `json:"inicio"`
	DuracaoHoras float64 `json:"duracaoHoras"`
	Fonte        string  `json:"fonte"`
}

// OfensorEntry is one of the day's top offending operations.
type OfensorEntry struct {
	ID          string  `json:"id"`
	Tempo       float64 `json:"tempo"`
	Operacao    string  `json:"operacao"`
	Porcentagem float64 `json:"porcentagem"`
}

// ServicoEntry is one washing or roller service window. The legacy
// display keys are kept for the dashboard tables.
type ServicoEntry struct {
	Data          string  `json:"Data"`
	Equipamento   string  `json:"Equipamento"`
	Inicio        string  `json:"Início"`
	Fim           string  `json:"Fim"`
	DuracaoHoras  float64 `json:"Duração (horas)"`
	Intervalo     string  `json:"Intervalo"`
	TempoTotalDia float64 `json:"Tempo Total do Dia"`
}

type ProducaoTotal struct {
	Valor float64 `json:"valor"`
}

type Imagens struct {
	MapaGPS        string `json:"mapaGPS"`
	AreaTrabalhada string `json:"areaTrabalhada"`
}

// CaseFleetData is the telematics supplement for one fleet.
type CaseFleetData struct {
	HorasMotor               float64 `json:"horasMotor"`
	RPM                      float64 `json:"rpm"`
	TemperaturaArrefecimento float64 `json:"temperaturaArrefecimento"`
	TemperaturaTransmissao   float64 `json:"temperaturaTransmissao"`
	VelocidadeMedia          float64 `json:"velocidadeMedia"`
}
