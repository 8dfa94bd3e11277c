// cmd/seedcatalogo/main.go: carga un catalogo de demo y opcionalmente
// imprime un token de desarrollo.
// Uso: go run ./cmd/seedcatalogo [-token -user 1]
package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"ventaspos/internal/apierror"
	"ventaspos/internal/config"
	"ventaspos/internal/dto"
	"ventaspos/internal/infra"
	"ventaspos/internal/middleware"
	"ventaspos/internal/repository"
	"ventaspos/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type semilla struct {
	nombre, codigo string
	stock, bajo    int
	costo, precio  string
	categoria      string
}

var catalogo = []semilla{
	{"Yerba Mate 1kg", "7790387000015", 40, 10, "2100.00", "2990.00", "Almacen"},
	{"Azucar 1kg", "7792540250450", 60, 15, "780.00", "1150.00", "Almacen"},
	{"Aceite Girasol 900ml", "7790060023715", 25, 8, "1450.00", "1999.99", "Almacen"},
	{"Fideos Spaghetti 500g", "7790070318055", 80, 20, "520.00", "790.00", "Almacen"},
	{"Gaseosa Cola 2.25L", "7790895000997", 30, 12, "1300.00", "2100.00", "Bebidas"},
	{"Galletitas Dulces 300g", "7790040113153", 5, 10, "610.00", "950.00", "Golosinas"},
}

func main() {
	token := flag.Bool("token", false, "imprime un JWT de desarrollo firmado con JWT_SECRET")
	userID := flag.Uint("user", 1, "user_id del token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	if *token {
		if cfg.JWTSecret == "" {
			log.Fatal().Msg("JWT_SECRET vacio")
		}
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.JWTClaims{
			UserID:           *userID,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour))},
		}).SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			log.Fatal().Err(err).Msg("token error")
		}
		fmt.Println(s)
		return
	}

	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}

	categoriaRepo := repository.NewCategoriaRepository(db)
	svc := service.NewProductoService(
		repository.NewProductoRepository(db),
		repository.NewMovimientoStockRepository(db),
		repository.NewHistorialPrecioRepository(db),
		categoriaRepo,
		nil, 0, nil,
	)

	ctx := context.Background()
	categorias, err := asegurarCategorias(ctx, service.NewCategoriaService(categoriaRepo))
	if err != nil {
		log.Fatal().Err(err).Msg("categorias error")
	}

	creados := 0
	for _, s := range catalogo {
		catID := categorias[s.categoria]
		_, err := svc.Crear(ctx, dto.CrearProductoRequest{
			Nombre:         s.nombre,
			Codigo:         s.codigo,
			StockActual:    s.stock,
			StockBajo:      s.bajo,
			PrecioCosto:    decimal.RequireFromString(s.costo),
			PrecioUnitario: decimal.RequireFromString(s.precio),
			CategoriaID:    &catID,
		})
		if apierror.IsKind(err, apierror.KindValidation) {
			log.Info().Str("codigo", s.codigo).Msg("ya existe, se omite")
			continue
		}
		if err != nil {
			log.Fatal().Err(err).Str("codigo", s.codigo).Msg("insert error")
		}
		creados++
	}
	fmt.Printf("Catalogo cargado: %d productos nuevos de %d\n", creados, len(catalogo))
}

// asegurarCategorias returns the id of every category the catalog uses,
// creating the missing ones. Existing names are matched ignoring case.
func asegurarCategorias(ctx context.Context, svc service.CategoriaService) (map[string]uint, error) {
	existentes, err := svc.Listar(ctx, dto.CategoriaFilter{Activo: "all"})
	if err != nil {
		return nil, err
	}
	porNombre := make(map[string]uint, len(existentes))
	for _, c := range existentes {
		porNombre[strings.ToLower(c.Nombre)] = c.ID
	}

	out := make(map[string]uint)
	for _, s := range catalogo {
		if _, ok := out[s.categoria]; ok {
			continue
		}
		if id, ok := porNombre[strings.ToLower(s.categoria)]; ok {
			out[s.categoria] = id
			continue
		}
		c, err := svc.Crear(ctx, dto.CrearCategoriaRequest{Nombre: s.categoria})
		if err != nil {
			return nil, err
		}
		out[s.categoria] = c.ID
	}
	return out, nil
}
