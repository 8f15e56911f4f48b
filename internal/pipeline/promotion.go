package pipeline

import "leadflow/internal/models"

type PromotionConfig struct {
	EarlyStages     []string
	TargetStage     string
	BulkSourceStage string
	BulkTargetStage string
}

// Promoter holds the automation rules that turn domain events into stage moves.
type Promoter struct {
	early      map[string]struct{}
	target     string
	bulkSource string
	bulkTarget string
}

func NewPromoter(cfg PromotionConfig) *Promoter {
	early := make(map[string]struct{}, len(cfg.EarlyStages))
	for _, s := range cfg.EarlyStages {
		early[s] = struct{}{}
	}
	return &Promoter{
		early:      early,
		target:     cfg.TargetStage,
		bulkSource: cfg.BulkSourceStage,
		bulkTarget: cfg.BulkTargetStage,
	}
}

// ShouldAutoAdvance is true while the lead sits in one of the early stages.
func (p *Promoter) ShouldAutoAdvance(lead *models.Lead) bool {
	_, ok := p.early[lead.Stage]
	return ok && p.target != ""
}

// NextStageAfterEvent maps an early stage to the target stage; identity otherwise.
func (p *Promoter) NextStageAfterEvent(current string) string {
	if _, ok := p.early[current]; ok && p.target != "" {
		return p.target
	}
	return current
}

func (p *Promoter) BulkSource() string { return p.bulkSource }
func (p *Promoter) BulkTarget() string { return p.bulkTarget }

// IsEligibleForPromotion: name AND (company OR position) AND (email OR phone).
func IsEligibleForPromotion(lead *models.Lead) bool {
	return lead.HasField(models.FieldName) &&
		(lead.HasField(models.FieldCompany) || lead.HasField(models.FieldPosition)) &&
		(lead.HasField(models.FieldEmail) || lead.HasField(models.FieldPhone))
}
