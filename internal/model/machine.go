package model

type MachineID string

const (
	MachineM1  MachineID = "M1"
	MachineM2  MachineID = "M2"
	MachineM3  MachineID = "M3"
	MachineM4  MachineID = "M4"
	MachineM5  MachineID = "M5"
	MachineM6  MachineID = "M6"
	MachinePAC MachineID = "PAC" // manual bagging
)

// MachineIDs lists every machine in display order.
var MachineIDs = []MachineID{MachineM1, MachineM2, MachineM3, MachineM4, MachineM5, MachineM6, MachinePAC}

var machineLabels = map[MachineID]string{
	MachineM1:  "Machine 1",
	MachineM2:  "Machine 2",
	MachineM3:  "Machine 3",
	MachineM4:  "Machine 4",
	MachineM5:  "Machine 5",
	MachineM6:  "Machine 6",
	MachinePAC: "PAC (Manuel)",
}

// DefaultPACCadence is the cadence assumed for the manual bagging machine
// whenever its configured cadence is zero. It is never persisted.
const DefaultPACCadence = 2000

// NextSuffix marks machine config records that belong to the preparation week.
const NextSuffix = "_NEXT"

func (id MachineID) Label() string {
	if l, ok := machineLabels[id]; ok {
		return l
	}
	return string(id)
}

func (id MachineID) Valid() bool {
	_, ok := machineLabels[id]
	return ok
}

// Order returns the position of id in MachineIDs, or len(MachineIDs) if unknown.
func (id MachineID) Order() int {
	for i, m := range MachineIDs {
		if m == id {
			return i
		}
	}
	return len(MachineIDs)
}

// Partner returns the other machine of a physically paired group.
func (id MachineID) Partner() (MachineID, bool) {
	switch id {
	case MachineM3:
		return MachineM4, true
	case MachineM4:
		return MachineM3, true
	case MachineM5:
		return MachineM6, true
	case MachineM6:
		return MachineM5, true
	}
	return "", false
}

type MachineConfig struct {
	ID            MachineID `bson:"id" json:"id"`
	Active        bool      `bson:"active" json:"active"`
	TargetBal     float64   `bson:"target_bal" json:"targetBal"`
	TargetVolume  float64   `bson:"target_volume" json:"targetVolume"`
	TargetCadence float64   `bson:"target_cadence" json:"targetCadence"`
}

// EffectiveCadence is the cadence to divide by in hour computations.
// Zero means "no cadence": callers must skip the division.
func (c MachineConfig) EffectiveCadence() float64 {
	if c.TargetCadence > 0 {
		return c.TargetCadence
	}
	if c.ID == MachinePAC {
		return DefaultPACCadence
	}
	return 0
}

// Configs maps every machine to its configuration for one week context.
type Configs map[MachineID]MachineConfig

// DefaultConfigs returns inactive, zero-target configs for every machine.
func DefaultConfigs() Configs {
	cfgs := make(Configs, len(MachineIDs))
	for _, id := range MachineIDs {
		cfgs[id] = MachineConfig{ID: id}
	}
	return cfgs
}

func (c Configs) Clone() Configs {
	if c == nil {
		return nil
	}
	out := make(Configs, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Active returns the active machine ids in display order.
func (c Configs) Active() []MachineID {
	var ids []MachineID
	for _, id := range MachineIDs {
		if cfg, ok := c[id]; ok && cfg.Active {
			ids = append(ids, id)
		}
	}
	return ids
}

// ConfigDocID is the persisted identity of a machine config within a week context.
func ConfigDocID(id MachineID, suffix string) string {
	return string(id) + suffix
}
