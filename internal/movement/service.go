package movement

import (
	"context"
	"fmt"
	"time"

	"github.com/grainledger/grainledger/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, m Movement) (Movement, error)
	Get(ctx context.Context, id int64) (Movement, error)
	List(ctx context.Context, filter Filter) ([]Movement, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Filter narrows movement listings.
type Filter struct {
	Status Status
	Type   Type
	From   time.Time
	To     time.Time
	Limit  int
}

// Service owns movement intake: validation, classification and creation of
// pending ledger entries.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateInput describes a user-entered movement record.
type CreateInput struct {
	Serial            string
	Date              time.Time
	Type              Type
	VarietyID         int64
	Bags              int
	GrossWeight       float64
	TareWeight        float64
	FromSubLocationID int64
	FromWarehouseID   int64
	ToSubLocationID   int64
	ToWarehouseID     int64
	OutturnID         int64
	AcquisitionRate   float64
	ActorID           int64
}

// Create validates, classifies and persists a pending movement. Ambiguous or
// unclassified routing is rejected here, before anything reaches the ledger.
func (s *Service) Create(ctx context.Context, input CreateInput) (Movement, error) {
	if input.VarietyID == 0 {
		return Movement{}, fmt.Errorf("movement: variety required")
	}
	m := Movement{
		Serial:            input.Serial,
		Date:              input.Date,
		Type:              input.Type,
		VarietyID:         input.VarietyID,
		Bags:              input.Bags,
		GrossWeight:       input.GrossWeight,
		TareWeight:        input.TareWeight,
		FromSubLocationID: input.FromSubLocationID,
		FromWarehouseID:   input.FromWarehouseID,
		ToSubLocationID:   input.ToSubLocationID,
		ToWarehouseID:     input.ToWarehouseID,
		OutturnID:         input.OutturnID,
		AcquisitionRate:   input.AcquisitionRate,
		Status:            StatusPending,
		CreatedBy:         input.ActorID,
	}
	cls, err := Classify(m)
	if err != nil {
		return Movement{}, err
	}
	net, err := ValidateQuantities(m)
	if err != nil {
		return Movement{}, err
	}
	m.NetWeight = net
	if m.Type == TypePurchase && m.AcquisitionRate <= 0 {
		return Movement{}, ErrMissingRate
	}
	if m.Type != TypePurchase {
		// Transfer and issue rates are snapshots taken at approval time.
		m.AcquisitionRate = 0
	}
	if m.Serial == "" {
		m.Serial = generateSerial("MV")
	}
	if m.Date.IsZero() {
		m.Date = time.Now().UTC().Truncate(24 * time.Hour)
	}

	created, err := s.repo.Insert(ctx, m)
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, input.ActorID, "MOVEMENT_CREATE", created.ID, map[string]any{
		"serial":   created.Serial,
		"type":     string(created.Type),
		"category": string(cls.Category),
		"bags":     created.Bags,
	})
	return created, nil
}

// Get returns one movement by id.
func (s *Service) Get(ctx context.Context, id int64) (Movement, error) {
	return s.repo.Get(ctx, id)
}

// List returns movements matching the filter, ordered by (date, seq).
func (s *Service) List(ctx context.Context, filter Filter) ([]Movement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 200
	}
	return s.repo.List(ctx, filter)
}

// Reverse creates a pending movement that, once approved, undoes the stock
// effect of an approved movement. Approved entries are never edited or
// deleted; this is the only supported correction path.
func (s *Service) Reverse(ctx context.Context, id int64, actorID int64) (Movement, error) {
	orig, err := s.repo.Get(ctx, id)
	if err != nil {
		return Movement{}, err
	}
	if orig.Status != StatusApproved {
		return Movement{}, ErrInvalidState
	}
	cls, err := Classify(orig)
	if err != nil {
		return Movement{}, err
	}

	rev := Movement{
		Serial:       generateSerial("RV"),
		Date:         time.Now().UTC().Truncate(24 * time.Hour),
		VarietyID:    orig.VarietyID,
		Bags:         orig.Bags,
		GrossWeight:  orig.GrossWeight,
		TareWeight:   orig.TareWeight,
		NetWeight:    orig.NetWeight,
		Status:       StatusPending,
		ReversalOfID: orig.ID,
		CreatedBy:    actorID,
	}
	switch cls.Category {
	case CategoryNormalPurchase:
		rev.Type = TypeLoading
		rev.FromSubLocationID = orig.ToSubLocationID
		rev.FromWarehouseID = orig.ToWarehouseID
	case CategoryShifting:
		rev.Type = TypeShifting
		rev.FromSubLocationID = orig.ToSubLocationID
		rev.FromWarehouseID = orig.ToWarehouseID
		rev.ToSubLocationID = orig.FromSubLocationID
		rev.ToWarehouseID = orig.FromWarehouseID
	case CategoryProductionShifting, CategoryLoading:
		// Stock re-enters the source bin at the rate it left with, which the
		// approval snapshotted on the original movement.
		rev.Type = TypePurchase
		rev.ToSubLocationID = orig.FromSubLocationID
		rev.ToWarehouseID = orig.FromWarehouseID
		rev.AcquisitionRate = orig.AcquisitionRate
	case CategoryForProductionPurchase:
		return Movement{}, fmt.Errorf("movement: for-production purchase cannot be reversed: production lots carry no stock state")
	}
	if _, err := Classify(rev); err != nil {
		return Movement{}, fmt.Errorf("movement: reversal routing: %w", err)
	}

	created, err := s.repo.Insert(ctx, rev)
	if err != nil {
		return Movement{}, err
	}
	s.recordAudit(ctx, actorID, "MOVEMENT_REVERSE", created.ID, map[string]any{
		"serial":      created.Serial,
		"reversal_of": orig.ID,
	})
	return created, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "movement",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	})
}

func generateSerial(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
