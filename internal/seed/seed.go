// Package seed loads the fixed inventory and policy matrices into the database.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/rackbook-api/internal/models"
)

const baseZoneSize = 6

// PowerResources lists the non-zoned pool: full racks 1-5 and 11-15, stands 6-7, half racks 8-10 and 16-20.
func PowerResources() []models.Resource {
	out := make([]models.Resource, 0, 20)
	for n := 1; n <= 20; n++ {
		capacity := models.CapacityFull
		switch {
		case n == 6 || n == 7:
			capacity = models.CapacityStand
		case (n >= 8 && n <= 10) || n >= 16:
			capacity = models.CapacityHalf
		}
		out = append(out, models.Resource{Number: n, Capacity: capacity})
	}
	return out
}

// BaseResources lists the zoned pool: 24 full racks in zones of six.
func BaseResources() []models.Resource {
	out := make([]models.Resource, 0, 24)
	for n := 1; n <= 24; n++ {
		zone := (n-1)/baseZoneSize + 1
		out = append(out, models.Resource{Number: n, Capacity: models.CapacityFull, Zone: &zone})
	}
	return out
}

// Areas returns the floor areas per pool key.
func Areas() map[string][]models.Area {
	units := func(n int) *int { return &n }
	return map[string][]models.Area{
		models.PoolPower: {
			{Key: "cables", Name: "Cables", Bookable: true},
			{Key: "dumbbells", Name: "Dumbbells", Bookable: true},
			{Key: "fixed_machines", Name: "Fixed-resistance Machines", Bookable: true},
			{Key: "functional", Name: "Functional Area", Bookable: true},
			{Key: "sprint_near", Name: "Sprint Track (Near third)", Bookable: true},
			{Key: "sprint_mid", Name: "Sprint Track (Mid third)", Bookable: true},
			{Key: "sprint_far", Name: "Sprint Track (Far third)", Bookable: true},
			{Key: "cardio_wattbikes", Name: "Cardio (Wattbikes)", UnitsCount: units(12), Bookable: true},
			{Key: "racks", Name: "Racks", Bookable: true},
		},
		models.PoolBase: {
			{Key: "cardio_wattbikes", Name: "Cardio (Wattbikes)", UnitsCount: units(20), Bookable: true},
			{Key: "near_dumbbells", Name: "Near Dumbbells", Bookable: true},
			{Key: "near_fixed_machines", Name: "Near Fixed-resistance Machines", Bookable: true},
			{Key: "far_fixed_machines", Name: "Far Fixed-resistance Machines", Bookable: true},
			{Key: "far_dumbbells", Name: "Far Dumbbells", Bookable: true},
			{Key: "boxing_mezz", Name: "Boxing Mezzanine", Bookable: true},
			{Key: "racks", Name: "Racks", Bookable: true},
		},
	}
}

// MatrixFile is the JSON layout of one policy window and its slot matrix.
type MatrixFile struct {
	Period struct {
		Name    string `json:"name" validate:"required"`
		Start   string `json:"start" validate:"required,datetime=2006-01-02"`
		End     string `json:"end" validate:"required,datetime=2006-01-02"`
		Profile string `json:"profile" validate:"required,oneof=term vacation"`
	} `json:"period"`
	Slots []MatrixSlot `json:"slots" validate:"dive"`
}

// MatrixSlot is one row of a matrix file.
type MatrixSlot struct {
	Pool       string `json:"side" validate:"required,oneof=Power Base"`
	Weekday    int    `json:"dow" validate:"min=1,max=7"`
	Start      string `json:"start" validate:"required,datetime=15:04"`
	End        string `json:"end" validate:"required,datetime=15:04"`
	Mode       string `json:"mode" validate:"required"`
	PerfCap    *int   `json:"perfCap" validate:"omitempty,min=0"`
	GeneralCap *int   `json:"generalCap" validate:"omitempty,min=0"`
}

// ExceptionFile lists ad-hoc blocking windows.
type ExceptionFile struct {
	Exceptions []struct {
		Pool   string    `json:"pool" validate:"required,oneof=Power Base"`
		Start  time.Time `json:"start" validate:"required"`
		End    time.Time `json:"end" validate:"required,gtfield=Start"`
		Reason string    `json:"reason" validate:"required"`
	} `json:"exceptions" validate:"dive"`
}

// ParseMatrix decodes and validates a matrix file.
func ParseMatrix(r io.Reader) (*MatrixFile, error) {
	var file MatrixFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode matrix: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("invalid matrix: %w", err)
	}
	for i, slot := range file.Slots {
		if !models.SlotMode(slot.Mode).Valid() {
			return nil, fmt.Errorf("slot %d: unknown mode %q", i, slot.Mode)
		}
		if err := (models.Slot{Start: slot.Start, End: slot.End}).Validate(); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
	}
	return &file, nil
}

// ParseExceptions decodes and validates an exception file.
func ParseExceptions(r io.Reader) (*ExceptionFile, error) {
	var file ExceptionFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode exceptions: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("invalid exceptions: %w", err)
	}
	return &file, nil
}

type inventoryWriter interface {
	UpsertPool(ctx context.Context, exec sqlx.ExtContext, key string) (int, error)
	UpsertResource(ctx context.Context, exec sqlx.ExtContext, resource models.Resource) error
	UpsertArea(ctx context.Context, exec sqlx.ExtContext, area models.Area) error
}

type policyWriter interface {
	UpsertWindow(ctx context.Context, exec sqlx.ExtContext, window *models.PolicyWindow) error
	UpsertSlotModes(ctx context.Context, exec sqlx.ExtContext, rows []models.SlotModeRow) error
	CreateException(ctx context.Context, window *models.ExceptionWindow) error
}

type txRunner interface {
	WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}

// Seeder writes inventory and matrices. Every step is an upsert so reruns converge.
type Seeder struct {
	inventory inventoryWriter
	policies  policyWriter
	tx        txRunner
	logger    *zap.Logger
	poolIDs   map[string]int
}

// NewSeeder constructs a Seeder.
func NewSeeder(inventory inventoryWriter, policies policyWriter, tx txRunner, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{inventory: inventory, policies: policies, tx: tx, logger: logger, poolIDs: map[string]int{}}
}

// Inventory upserts both pools with their resources and areas in one transaction.
func (s *Seeder) Inventory(ctx context.Context) error {
	resources := map[string][]models.Resource{
		models.PoolPower: PowerResources(),
		models.PoolBase:  BaseResources(),
	}
	areas := Areas()
	return s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		for _, key := range []string{models.PoolPower, models.PoolBase} {
			id, err := s.inventory.UpsertPool(ctx, exec, key)
			if err != nil {
				return err
			}
			s.poolIDs[key] = id
			for _, res := range resources[key] {
				res.PoolID = id
				if err := s.inventory.UpsertResource(ctx, exec, res); err != nil {
					return err
				}
			}
			for _, area := range areas[key] {
				area.PoolID = id
				if err := s.inventory.UpsertArea(ctx, exec, area); err != nil {
					return err
				}
			}
			s.logger.Info("pool seeded", zap.String("pool", key), zap.Int("resources", len(resources[key])), zap.Int("areas", len(areas[key])))
		}
		return nil
	})
}

// ImportMatrix upserts the window and its slot rows. Inventory must run first.
func (s *Seeder) ImportMatrix(ctx context.Context, file *MatrixFile) error {
	start, err := models.ParseDate(file.Period.Start)
	if err != nil {
		return err
	}
	end, err := models.ParseDate(file.Period.End)
	if err != nil {
		return err
	}
	window := &models.PolicyWindow{
		Name:      file.Period.Name,
		Profile:   models.PolicyProfile(file.Period.Profile),
		StartDate: start,
		EndDate:   end,
	}
	return s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if err := s.policies.UpsertWindow(ctx, exec, window); err != nil {
			return err
		}
		rows := make([]models.SlotModeRow, 0, len(file.Slots))
		for _, slot := range file.Slots {
			poolID, ok := s.poolIDs[slot.Pool]
			if !ok {
				return fmt.Errorf("unknown pool %q in matrix %s", slot.Pool, file.Period.Name)
			}
			rows = append(rows, models.SlotModeRow{
				WindowID:       window.ID,
				PoolID:         poolID,
				Weekday:        slot.Weekday,
				SlotStart:      slot.Start,
				SlotEnd:        slot.End,
				Mode:           models.SlotMode(slot.Mode),
				PerformanceCap: slot.PerfCap,
				GeneralCap:     slot.GeneralCap,
			})
		}
		if err := s.policies.UpsertSlotModes(ctx, exec, rows); err != nil {
			return err
		}
		s.logger.Info("matrix imported", zap.String("window", window.Name), zap.Int("slots", len(rows)))
		return nil
	})
}

// ImportExceptions stores each exception window. Inventory must run first.
func (s *Seeder) ImportExceptions(ctx context.Context, file *ExceptionFile) error {
	for _, item := range file.Exceptions {
		poolID, ok := s.poolIDs[item.Pool]
		if !ok {
			return fmt.Errorf("unknown pool %q in exceptions", item.Pool)
		}
		if err := s.policies.CreateException(ctx, &models.ExceptionWindow{
			PoolID:   poolID,
			StartsAt: item.Start.UTC(),
			EndsAt:   item.End.UTC(),
			Reason:   item.Reason,
		}); err != nil {
			return err
		}
	}
	s.logger.Info("exceptions imported", zap.Int("count", len(file.Exceptions)))
	return nil
}
