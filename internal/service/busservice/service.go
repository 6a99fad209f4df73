package busservice

import (
	"context"
	"strings"

	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// BusRepository define o contrato que o Serviço da Frota espera da camada de Persistência.
type BusRepository interface {
	CreateBus(ctx context.Context, bus domain.Bus) (domain.Bus, error)
	GetBusByID(ctx context.Context, id int64) (domain.Bus, error)
	GetAllBuses(ctx context.Context) ([]domain.Bus, error)
	UpdateBus(ctx context.Context, bus domain.Bus) (domain.Bus, error)
	DeleteBus(ctx context.Context, id int64) error
}

// Service é a estrutura que implementa as regras de negócio da frota.
type Service struct {
	repo   BusRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço da Frota.
func NewService(repo BusRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateBus cria um novo ônibus após validações de negócio.
func (s *Service) CreateBus(ctx context.Context, bus domain.Bus) (domain.Bus, error) {
	s.logger.Debug("Iniciando criação de ônibus no serviço.", map[string]interface{}{"bus_number": bus.BusNumber})

	if err := s.validateBus(bus); err != nil {
		s.logger.Warn("Falha na validação do ônibus.", map[string]interface{}{"bus_number": bus.BusNumber, "error": err.Error()})
		return domain.Bus{}, err
	}

	createdBus, err := s.repo.CreateBus(ctx, bus)
	if err != nil {
		s.logger.Error("Falha ao criar ônibus no repositório.", err)
		return domain.Bus{}, err
	}

	s.logger.Info("Ônibus criado com sucesso.", map[string]interface{}{"id": createdBus.ID, "bus_number": createdBus.BusNumber})
	return createdBus, nil
}

// GetBusByID busca um ônibus pelo ID.
func (s *Service) GetBusByID(ctx context.Context, id int64) (domain.Bus, error) {
	if id <= 0 {
		return domain.Bus{}, apperror.NewValidationError("O ID do ônibus deve ser um inteiro positivo.")
	}

	bus, err := s.repo.GetBusByID(ctx, id)
	if err != nil {
		return domain.Bus{}, err // Erros do repositório já são NotFoundError ou DBError
	}

	return bus, nil
}

// GetAllBuses busca todos os ônibus da frota.
func (s *Service) GetAllBuses(ctx context.Context) ([]domain.Bus, error) {
	buses, err := s.repo.GetAllBuses(ctx)
	if err != nil {
		s.logger.Error("Falha ao buscar a frota no repositório.", err)
		return nil, err
	}

	s.logger.Info("Frota listada com sucesso.", map[string]interface{}{"count": len(buses)})
	return buses, nil
}

// UpdateBus atualiza um ônibus existente.
func (s *Service) UpdateBus(ctx context.Context, bus domain.Bus) (domain.Bus, error) {
	s.logger.Debug("Iniciando atualização de ônibus no serviço.", map[string]interface{}{"id": bus.ID})

	if bus.ID <= 0 {
		return domain.Bus{}, apperror.NewValidationError("O ID do ônibus deve ser um inteiro positivo.")
	}
	if err := s.validateBus(bus); err != nil {
		return domain.Bus{}, err
	}

	updatedBus, err := s.repo.UpdateBus(ctx, bus)
	if err != nil {
		s.logger.Error("Falha ao atualizar ônibus no repositório.", err)
		return domain.Bus{}, err
	}

	s.logger.Info("Ônibus atualizado com sucesso.", map[string]interface{}{"id": updatedBus.ID, "bus_number": updatedBus.BusNumber})
	return updatedBus, nil
}

// DeleteBus remove (soft-delete) um ônibus da frota.
func (s *Service) DeleteBus(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperror.NewValidationError("O ID do ônibus deve ser um inteiro positivo.")
	}

	if err := s.repo.DeleteBus(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar ônibus no repositório.", err)
		return err
	}

	s.logger.Info("Ônibus deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// validateBus valida os campos obrigatórios de um ônibus.
func (s *Service) validateBus(bus domain.Bus) error {
	if strings.TrimSpace(bus.BusNumber) == "" {
		return apperror.NewValidationError("O número do ônibus não pode ser vazio.")
	}
	if strings.TrimSpace(bus.PlateNumber) == "" {
		return apperror.NewValidationError("A placa do ônibus não pode ser vazia.")
	}
	if bus.Status != "" {
		switch bus.Status {
		case domain.BusActive, domain.BusUnderMaintenance, domain.BusDisposed:
		default:
			return apperror.NewValidationError("Status de ônibus inválido.")
		}
	}
	return nil
}
