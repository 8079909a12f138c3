package model

type Team string

const (
	TeamMatin Team = "MATIN"
	TeamSoir  Team = "SOIR"
)

var Teams = []Team{TeamMatin, TeamSoir}

func (t Team) Valid() bool {
	return t == TeamMatin || t == TeamSoir
}

type ProductionLog struct {
	ID           string    `bson:"_id" json:"id"`
	Date         string    `bson:"date" json:"date"` // YYYY-MM-DD
	MachineID    MachineID `bson:"machine_id" json:"machineId"`
	Team         Team      `bson:"team" json:"team"`
	BalProduced  int       `bson:"bal_produced" json:"balProduced"`
	DocsProduced int       `bson:"docs_produced" json:"docsProduced"`
	Hours        float64   `bson:"hours" json:"hours"`
}

const (
	ForecastIDCurrent     = 1
	ForecastIDPreparation = 2
)

type GlobalForecasts struct {
	TotalVolume         float64 `bson:"total_volume" json:"totalVolume"`
	TotalWeight         float64 `bson:"total_weight" json:"totalWeight"`
	PredictedBal        float64 `bson:"predicted_bal" json:"predictedBal"`
	MaxDocsPerHandful   float64 `bson:"max_docs_per_handful" json:"maxDocsPerHandful"`
	MaxWeightPerHandful float64 `bson:"max_weight_per_handful" json:"maxWeightPerHandful"`
}
