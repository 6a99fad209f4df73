package disposalservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// DisposalRepository define o contrato de persistência dos registros de baixa.
type DisposalRepository interface {
	Save(ctx context.Context, d domain.Disposal) (domain.Disposal, error)
	FindAll(ctx context.Context) ([]domain.Disposal, error)
}

// StockRepository é o recorte do inventário usado para validar o alvo da baixa.
type StockRepository interface {
	FindByID(ctx context.Context, id int64) (domain.StockWithItem, error)
}

// BusRepository é o recorte da frota usado para validar o alvo da baixa.
type BusRepository interface {
	GetBusByID(ctx context.Context, id int64) (domain.Bus, error)
}

// Service implementa as regras de negócio dos registros de baixa.
// Uma baixa referencia um par estoque+lote OU um ônibus, nunca ambos, e é
// somente-leitura em relação ao inventário: ela documenta a saída, não a executa.
type Service struct {
	repo   DisposalRepository
	stocks StockRepository
	buses  BusRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Baixas.
func NewService(repo DisposalRepository, stocks StockRepository, buses BusRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, stocks: stocks, buses: buses, logger: logger}
}

// CreateDisposal registra uma baixa após validar o alvo e o método.
func (s *Service) CreateDisposal(ctx context.Context, d domain.Disposal) (domain.Disposal, error) {
	s.logger.Debug("Iniciando registro de baixa no serviço.", map[string]interface{}{"method": string(d.Method)})

	switch d.Method {
	case domain.DisposalSold, domain.DisposalScrapped, domain.DisposalDonated:
	default:
		return domain.Disposal{}, apperror.NewValidationError(fmt.Sprintf("Método de baixa inválido: %s.", d.Method))
	}
	if strings.TrimSpace(d.Reason) == "" {
		return domain.Disposal{}, apperror.NewValidationError("O motivo da baixa é obrigatório.")
	}

	stockScoped := d.StockID != nil || d.BatchID != nil
	busScoped := d.BusID != nil

	switch {
	case stockScoped && busScoped:
		return domain.Disposal{}, apperror.NewValidationError("Uma baixa referencia um lote de estoque OU um ônibus, nunca ambos.")
	case stockScoped:
		if err := s.validateStockTarget(ctx, d); err != nil {
			return domain.Disposal{}, err
		}
	case busScoped:
		if _, err := s.buses.GetBusByID(ctx, *d.BusID); err != nil {
			return domain.Disposal{}, err
		}
		if d.Quantity != nil {
			return domain.Disposal{}, apperror.NewValidationError("Baixa de ônibus não carrega quantidade.")
		}
	default:
		return domain.Disposal{}, apperror.NewValidationError("A baixa deve referenciar um lote de estoque ou um ônibus.")
	}

	if d.DisposedAt.IsZero() {
		d.DisposedAt = time.Now().UTC()
	}

	created, err := s.repo.Save(ctx, d)
	if err != nil {
		s.logger.Error("Falha ao registrar baixa no repositório.", err)
		return domain.Disposal{}, err
	}

	s.logger.Info("Baixa registrada com sucesso.", map[string]interface{}{"id": created.ID, "method": string(created.Method)})
	return created, nil
}

// ListDisposals lista o histórico de baixas.
func (s *Service) ListDisposals(ctx context.Context) ([]domain.Disposal, error) {
	return s.repo.FindAll(ctx)
}

// validateStockTarget valida uma baixa referenciando estoque+lote.
func (s *Service) validateStockTarget(ctx context.Context, d domain.Disposal) error {
	if d.StockID == nil || d.BatchID == nil {
		return apperror.NewValidationError("Baixa de estoque exige o ID do estoque e do lote.")
	}
	if d.Quantity == nil || !d.Quantity.IsPositive() {
		return apperror.NewValidationError("Baixa de estoque exige quantidade positiva.")
	}

	sw, err := s.stocks.FindByID(ctx, *d.StockID)
	if err != nil {
		return err
	}
	for _, b := range sw.Batches {
		if b.ID == *d.BatchID {
			return nil
		}
	}
	return apperror.NewNotFoundError(fmt.Sprintf("Lote com ID %d não pertence ao estoque %s.", *d.BatchID, sw.Stock.StockCode()))
}
