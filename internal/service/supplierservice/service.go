package supplierservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"frotastock/internal/domain"
	apperror "frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// SupplierRepository define o contrato que o Serviço de Fornecedores espera da Persistência.
type SupplierRepository interface {
	Save(ctx context.Context, s domain.Supplier) (domain.Supplier, error)
	FindByID(ctx context.Context, id int64) (domain.Supplier, error)
	FindAll(ctx context.Context) ([]domain.Supplier, error)
	Update(ctx context.Context, s domain.Supplier) error
	SoftDelete(ctx context.Context, id int64) error
	SaveItemPrice(ctx context.Context, si domain.SupplierItem) (domain.SupplierItem, error)
	FindItemPrices(ctx context.Context, supplierID int64) ([]domain.SupplierItem, error)
}

// ItemRepository é o recorte do catálogo usado para validar o item de um preço.
type ItemRepository interface {
	FindByID(ctx context.Context, id int64) (domain.Item, error)
}

// Service implementa as regras de negócio de fornecedores e preços.
type Service struct {
	repo   SupplierRepository
	items  ItemRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Fornecedores.
func NewService(repo SupplierRepository, items ItemRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, items: items, logger: logger}
}

// CreateSupplier cadastra um novo fornecedor.
func (s *Service) CreateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	s.logger.Debug("Iniciando criação de fornecedor no serviço.", map[string]interface{}{"supplier_name": supplier.SupplierName})

	if strings.TrimSpace(supplier.SupplierName) == "" {
		return domain.Supplier{}, apperror.NewValidationError("O nome do fornecedor não pode ser vazio.")
	}

	created, err := s.repo.Save(ctx, supplier)
	if err != nil {
		s.logger.Error("Falha ao criar fornecedor no repositório.", err)
		return domain.Supplier{}, err
	}

	s.logger.Info("Fornecedor criado com sucesso.", map[string]interface{}{"id": created.ID, "supplier_name": created.SupplierName})
	return created, nil
}

// GetSupplierByID busca um fornecedor pelo ID.
func (s *Service) GetSupplierByID(ctx context.Context, id int64) (domain.Supplier, error) {
	if id <= 0 {
		return domain.Supplier{}, apperror.NewValidationError("O ID do fornecedor deve ser um inteiro positivo.")
	}
	return s.repo.FindByID(ctx, id)
}

// ListSuppliers lista os fornecedores ativos.
func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.FindAll(ctx)
}

// UpdateSupplier atualiza os dados cadastrais de um fornecedor.
func (s *Service) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	if supplier.ID <= 0 {
		return domain.Supplier{}, apperror.NewValidationError("O ID do fornecedor deve ser um inteiro positivo.")
	}
	if strings.TrimSpace(supplier.SupplierName) == "" {
		return domain.Supplier{}, apperror.NewValidationError("O nome do fornecedor não pode ser vazio.")
	}

	if err := s.repo.Update(ctx, supplier); err != nil {
		s.logger.Error("Falha ao atualizar fornecedor no repositório.", err)
		return domain.Supplier{}, err
	}

	s.logger.Info("Fornecedor atualizado com sucesso.", map[string]interface{}{"id": supplier.ID})
	return s.repo.FindByID(ctx, supplier.ID)
}

// DeleteSupplier marca um fornecedor como deletado.
func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperror.NewValidationError("O ID do fornecedor deve ser um inteiro positivo.")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Fornecedor deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// RegisterItemPrice registra o preço de um item junto a um fornecedor.
// A data de vigência ausente assume a data atual.
func (s *Service) RegisterItemPrice(ctx context.Context, price domain.SupplierItem) (domain.SupplierItem, error) {
	s.logger.Debug("Iniciando registro de preço no serviço.", map[string]interface{}{
		"supplier_id": price.SupplierID, "item_id": price.ItemID,
	})

	if price.SupplierID <= 0 {
		return domain.SupplierItem{}, apperror.NewValidationError("O ID do fornecedor deve ser um inteiro positivo.")
	}
	if price.ItemID <= 0 {
		return domain.SupplierItem{}, apperror.NewValidationError("O ID do item deve ser um inteiro positivo.")
	}
	if price.UnitPrice.IsNegative() {
		return domain.SupplierItem{}, apperror.NewValidationError("O preço unitário não pode ser negativo.")
	}

	if _, err := s.repo.FindByID(ctx, price.SupplierID); err != nil {
		return domain.SupplierItem{}, err
	}
	if _, err := s.items.FindByID(ctx, price.ItemID); err != nil {
		return domain.SupplierItem{}, apperror.NewValidationError(fmt.Sprintf("Item com ID %d não existe.", price.ItemID))
	}

	if price.EffectiveFrom.IsZero() {
		price.EffectiveFrom = time.Now().UTC()
	}

	created, err := s.repo.SaveItemPrice(ctx, price)
	if err != nil {
		s.logger.Error("Falha ao registrar preço no repositório.", err)
		return domain.SupplierItem{}, err
	}

	s.logger.Info("Preço registrado com sucesso.", map[string]interface{}{
		"id": created.ID, "supplier_id": created.SupplierID, "item_id": created.ItemID,
	})
	return created, nil
}

// ListItemPrices lista o histórico de preços de um fornecedor.
func (s *Service) ListItemPrices(ctx context.Context, supplierID int64) ([]domain.SupplierItem, error) {
	if supplierID <= 0 {
		return nil, apperror.NewValidationError("O ID do fornecedor deve ser um inteiro positivo.")
	}
	if _, err := s.repo.FindByID(ctx, supplierID); err != nil {
		return nil, err
	}
	return s.repo.FindItemPrices(ctx, supplierID)
}
