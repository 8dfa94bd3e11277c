package service

import (
	"context"
	"strings"

	"ventaspos/internal/apierror"
	"ventaspos/internal/dto"
	"ventaspos/internal/model"
	"ventaspos/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ClienteService manages the customers a sale may reference.
type ClienteService interface {
	Crear(ctx context.Context, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, id uint) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	Actualizar(ctx context.Context, id uint, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	Eliminar(ctx context.Context, id uint) error
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{}
	if err := aplicarCliente(c, req); err != nil {
		return nil, err
	}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.verificarDocumento(tx, c.Documento, 0); err != nil {
			return err
		}
		return s.repo.SaveTx(tx, c)
	})
	if err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) ObtenerPorID(ctx context.Context, id uint) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "cliente", id)
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	clientes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, traducirError(err)
	}
	resp := &dto.ClienteListResponse{
		Data:  make([]dto.ClienteResponse, 0, len(clientes)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range clientes {
		resp.Data = append(resp.Data, *clienteToResponse(&clientes[i]))
	}
	return resp, nil
}

// Actualizar replaces every field. Omitted optional fields become null.
func (s *clienteService) Actualizar(ctx context.Context, id uint, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	var c *model.Cliente
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		c, err = s.repo.FindForUpdateTx(tx, id)
		if err != nil {
			return notFoundOr(err, "cliente", id)
		}
		if err := aplicarCliente(c, req); err != nil {
			return err
		}
		if err := s.verificarDocumento(tx, c.Documento, id); err != nil {
			return err
		}
		return s.repo.SaveTx(tx, c)
	})
	if err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

// Eliminar refuses to delete a client that sales still reference.
func (s *clienteService) Eliminar(ctx context.Context, id uint) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.repo.FindForUpdateTx(tx, id); err != nil {
			return notFoundOr(err, "cliente", id)
		}
		tiene, err := s.repo.TieneVentasTx(tx, id)
		if err != nil {
			return err
		}
		if tiene {
			log.Info().Uint("cliente_id", id).Msg("cliente con ventas, no se elimina")
			return apierror.Conflict("El cliente tiene ventas registradas", nil)
		}
		return s.repo.DeleteTx(tx, id)
	})
}

func (s *clienteService) verificarDocumento(tx *gorm.DB, documento *string, excluirID uint) error {
	if documento == nil {
		return nil
	}
	enUso, err := s.repo.DocumentoEnUsoTx(tx, *documento, excluirID)
	if err != nil {
		return err
	}
	if enUso {
		return apierror.Validationf("documento", "Ya existe un cliente con documento %s", *documento)
	}
	return nil
}

// aplicarCliente trims the request into c. Blank optional fields are stored
// as null so the unique documento index ignores them.
func aplicarCliente(c *model.Cliente, req dto.ClienteRequest) error {
	c.Nombre = strings.TrimSpace(req.Nombre)
	if c.Nombre == "" {
		return apierror.Validation("nombre", "nombre es requerido")
	}
	c.Documento = textoOpcional(req.Documento)
	c.Direccion = textoOpcional(req.Direccion)
	c.Telefono = textoOpcional(req.Telefono)
	return nil
}

func textoOpcional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:        c.ID,
		Nombre:    c.Nombre,
		Documento: c.Documento,
		Direccion: c.Direccion,
		Telefono:  c.Telefono,
	}
}
