package busrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"frotastock/internal/domain"
	"frotastock/internal/errors"
	"frotastock/internal/pkg/logger"
)

// BusRepository implementa a interface para operações CRUD da frota.
type BusRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewBusRepository cria e retorna uma nova instância do Repositório da Frota.
func NewBusRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *BusRepository {
	return &BusRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// CreateBus insere um novo ônibus no banco de dados.
func (r *BusRepository) CreateBus(ctx context.Context, bus domain.Bus) (domain.Bus, error) {
	r.logger.Debug("Iniciando CreateBus no repositório.", map[string]interface{}{"bus_number": bus.BusNumber})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if bus.Status == "" {
		bus.Status = domain.BusActive
	}

	query := `
        INSERT INTO buses (bus_number, plate_number, body_builder, manufacturer, year_model, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, now(), now())
        RETURNING id, created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		bus.BusNumber, bus.PlateNumber, bus.BodyBuilder, bus.Manufacturer, bus.YearModel, bus.Status,
	).Scan(&bus.ID, &bus.CreatedAt, &bus.UpdatedAt)
	if err != nil {
		r.logger.Error("Falha ao inserir ônibus no DB.", err)
		return domain.Bus{}, errors.NewDBError("Falha ao criar ônibus", err)
	}

	r.logger.Info("Ônibus criado com sucesso.", map[string]interface{}{"id": bus.ID, "bus_number": bus.BusNumber})
	return bus, nil
}

// GetBusByID busca um ônibus pelo ID.
func (r *BusRepository) GetBusByID(ctx context.Context, id int64) (domain.Bus, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, bus_number, plate_number, COALESCE(body_builder, ''), COALESCE(manufacturer, ''),
               COALESCE(year_model, 0), status, created_at, updated_at
        FROM buses
        WHERE id = $1 AND is_deleted = FALSE`

	var bus domain.Bus
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&bus.ID, &bus.BusNumber, &bus.PlateNumber, &bus.BodyBuilder, &bus.Manufacturer,
		&bus.YearModel, &bus.Status, &bus.CreatedAt, &bus.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return domain.Bus{}, errors.NewNotFoundError(fmt.Sprintf("Ônibus com ID %d não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar ônibus no DB.", err)
		return domain.Bus{}, errors.NewDBError("Falha ao buscar ônibus", err)
	}

	return bus, nil
}

// GetAllBuses busca todos os ônibus da frota, ordenados pelo número.
func (r *BusRepository) GetAllBuses(ctx context.Context) ([]domain.Bus, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, bus_number, plate_number, COALESCE(body_builder, ''), COALESCE(manufacturer, ''),
               COALESCE(year_model, 0), status, created_at, updated_at
        FROM buses
        WHERE is_deleted = FALSE
        ORDER BY bus_number`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao executar GetAllBuses query.", err)
		return nil, errors.NewDBError("Falha ao buscar todos os ônibus", err)
	}
	defer rows.Close()

	var buses []domain.Bus
	for rows.Next() {
		var bus domain.Bus
		err := rows.Scan(
			&bus.ID, &bus.BusNumber, &bus.PlateNumber, &bus.BodyBuilder, &bus.Manufacturer,
			&bus.YearModel, &bus.Status, &bus.CreatedAt, &bus.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Falha ao mapear ônibus na iteração de GetAllBuses.", err)
			return nil, errors.NewDBError("Falha ao mapear ônibus do DB", err)
		}
		buses = append(buses, bus)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Erro após iteração de ônibus", err)
	}

	r.logger.Info("GetAllBuses concluído com sucesso.", map[string]interface{}{"total_buses": len(buses)})
	return buses, nil
}

// UpdateBus atualiza um ônibus existente.
func (r *BusRepository) UpdateBus(ctx context.Context, bus domain.Bus) (domain.Bus, error) {
	r.logger.Debug("Iniciando UpdateBus no repositório.", map[string]interface{}{"id": bus.ID, "bus_number": bus.BusNumber})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE buses
        SET bus_number = $1, plate_number = $2, body_builder = $3, manufacturer = $4,
            year_model = $5, status = $6, updated_at = now()
        WHERE id = $7 AND is_deleted = FALSE
        RETURNING created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		bus.BusNumber, bus.PlateNumber, bus.BodyBuilder, bus.Manufacturer, bus.YearModel, bus.Status, bus.ID,
	).Scan(&bus.CreatedAt, &bus.UpdatedAt)

	if err == sql.ErrNoRows {
		return domain.Bus{}, errors.NewNotFoundError(fmt.Sprintf("Ônibus com ID %d não encontrado para atualização.", bus.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar ônibus no DB.", err)
		return domain.Bus{}, errors.NewDBError("Falha ao atualizar ônibus", err)
	}

	r.logger.Info("Ônibus atualizado com sucesso.", map[string]interface{}{"id": bus.ID, "bus_number": bus.BusNumber})
	return bus, nil
}

// DeleteBus marca um ônibus como deletado. O histórico de baixas que o
// referencia permanece intacto.
func (r *BusRepository) DeleteBus(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `
        UPDATE buses SET is_deleted = TRUE, updated_at = now()
        WHERE id = $1 AND is_deleted = FALSE`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar ônibus do DB.", err)
		return errors.NewDBError("Falha ao deletar ônibus", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Ônibus com ID %d não encontrado para exclusão.", id))
	}

	r.logger.Info("Ônibus deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}
