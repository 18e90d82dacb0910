package facturacion

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/facturaec/sri-core/internal/application/dto"
	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/calculo"
	domcomprobante "github.com/facturaec/sri-core/internal/domain/comprobante"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
	"github.com/facturaec/sri-core/pkg/logger"
	"github.com/facturaec/sri-core/pkg/sri"
)

// CrearComprobanteUseCase emite un comprobante: valida identificaciones y
// totales declarados, asigna secuencial bajo serialización, construye la clave
// de acceso y persiste el agregado en estado CREADO con su primera entrada de
// historial, todo en una transacción.
type CrearComprobanteUseCase struct {
	txRunner    TxRunner
	emisorRepo  repository.EmisorRepository
	calculadora *calculo.Calculadora
	tipoEmision string
	log         *logger.Logger
}

// NewCrearComprobanteUseCase construye el caso de uso.
func NewCrearComprobanteUseCase(
	txRunner TxRunner,
	emisorRepo repository.EmisorRepository,
	calculadora *calculo.Calculadora,
	log *logger.Logger,
) *CrearComprobanteUseCase {
	return &CrearComprobanteUseCase{
		txRunner:    txRunner,
		emisorRepo:  emisorRepo,
		calculadora: calculadora,
		tipoEmision: sri.EmisionNormal,
		log:         log,
	}
}

// Crear valida y persiste el comprobante. Un descuadre o una identificación
// inválida rechazan la petición sin consumir secuencial.
func (uc *CrearComprobanteUseCase) Crear(ctx context.Context, in dto.CrearComprobanteRequest) (*dto.ComprobanteResponse, error) {
	version := entity.VersionEsquema(in.Version)
	if _, err := domcomprobante.DecimalesCantidad(version); err != nil {
		return nil, err
	}
	if !sri.TiposComprobanteValidos[in.TipoComprobante] {
		return nil, fmt.Errorf("%w: tipo de comprobante %q", domain.ErrEntradaInvalida, in.TipoComprobante)
	}
	if len(in.Detalles) == 0 && in.TipoComprobante != sri.TipoGuiaRemision {
		return nil, fmt.Errorf("%w: el comprobante requiere al menos un detalle", domain.ErrEntradaInvalida)
	}

	emisor, err := uc.emisorRepo.GetByID(ctx, in.EmisorID)
	if err != nil {
		return nil, fmt.Errorf("emisor %s: %w", in.EmisorID, err)
	}

	if err := sri.ValidarIdentificacion(in.Contraparte.TipoIdentificacion, in.Contraparte.Identificacion); err != nil {
		return nil, fmt.Errorf("%w: contraparte: %v", domain.ErrEntradaInvalida, err)
	}

	c := uc.armarComprobante(in, emisor, version)

	// Recalcular cada línea contra el catálogo vigente en la fecha de emisión
	// y comparar con lo declarado. El descuadre se reporta, nunca se corrige.
	for i, d := range c.Detalles {
		categoria := in.Detalles[i].CategoriaProducto
		if err := uc.calculadora.ComputarLinea(ctx, d, c.FechaEmision, categoria); err != nil {
			return nil, err
		}
	}
	if len(c.Detalles) > 0 {
		if err := uc.calculadora.ValidarTotales(c); err != nil {
			return nil, err
		}
	}

	// Secuencial + clave de acceso + persistencia: una sola transacción. Si la
	// clave no se puede construir o el insert falla, el rollback devuelve el
	// secuencial sin dejar hueco.
	err = uc.txRunner.Run(ctx, func(
		comprobantes repository.ComprobanteRepository,
		secuenciales repository.SecuencialRepository,
	) error {
		secuencial, err := secuenciales.Siguiente(ctx, emisor.ID, c.Establecimiento, c.PuntoEmision, c.TipoComprobante)
		if err != nil {
			return err
		}
		c.Secuencial = secuencial

		clave, err := sri.BuildClaveAcceso(sri.ClaveAccesoParams{
			FechaEmision:    c.FechaEmision,
			TipoComprobante: c.TipoComprobante,
			RUCEmisor:       c.RUCEmisor,
			Ambiente:        c.Ambiente,
			Establecimiento: c.Establecimiento,
			PuntoEmision:    c.PuntoEmision,
			Secuencial:      c.Secuencial,
			CodigoNumerico:  codigoNumerico(),
			TipoEmision:     c.TipoEmision,
		})
		if err != nil {
			return err
		}
		c.ClaveAcceso = clave

		// Validación estructural de campos por versión, con la clave ya puesta.
		if err := domcomprobante.Validar(c); err != nil {
			return err
		}

		historial := &entity.HistorialEstado{
			EstadoNuevo: entity.EstadoCreado,
			Fecha:       time.Now(),
			Actor:       "sistema",
		}
		return comprobantes.Crear(ctx, c, historial)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("clave_acceso", c.ClaveAcceso).
		Str("tipo", c.TipoComprobante).
		Int64("secuencial", c.Secuencial).
		Msg("comprobante creado")

	return dto.NewComprobanteResponse(c), nil
}

func (uc *CrearComprobanteUseCase) armarComprobante(in dto.CrearComprobanteRequest, emisor *entity.Emisor, version entity.VersionEsquema) *entity.Comprobante {
	c := &entity.Comprobante{
		IDExterno:       in.IDExterno,
		TipoComprobante: in.TipoComprobante,
		Version:         version,
		Ambiente:        emisor.Ambiente,
		TipoEmision:     uc.tipoEmision,

		RUCEmisor:       emisor.RUC,
		RazonSocial:     emisor.RazonSocial,
		NombreComercial: emisor.NombreComercial,
		DireccionMatriz: emisor.DireccionMatriz,

		Establecimiento: in.Establecimiento,
		PuntoEmision:    in.PuntoEmision,
		FechaEmision:    in.FechaEmision,

		ContraparteTipoID:         in.Contraparte.TipoIdentificacion,
		ContraparteIdentificacion: in.Contraparte.Identificacion,
		ContraparteRazonSocial:    in.Contraparte.RazonSocial,
		ContraparteDireccion:      in.Contraparte.Direccion,

		Estado: entity.EstadoCreado,

		TotalSinImpuestos: in.TotalSinImpuestos,
		TotalDescuento:    in.TotalDescuento,
		TotalImpuestos:    in.TotalImpuestos,
		ImporteTotal:      in.ImporteTotal,

		RequiereReenvio: true,
	}

	for i, det := range in.Detalles {
		d := &entity.Detalle{
			NumeroLinea:            i + 1,
			CodigoPrincipal:        det.CodigoPrincipal,
			CodigoAuxiliar:         det.CodigoAuxiliar,
			Descripcion:            det.Descripcion,
			Cantidad:               det.Cantidad,
			PrecioUnitario:         det.PrecioUnitario,
			Descuento:              det.Descuento,
			PrecioTotalSinImpuesto: det.PrecioTotalSinImpuesto,
		}
		for _, imp := range det.Impuestos {
			d.Impuestos = append(d.Impuestos, &entity.ImpuestoDetalle{
				CodigoImpuesto: imp.Codigo,
				CodigoTarifa:   imp.CodigoPorcentaje,
				Tarifa:         imp.Tarifa,
				BaseImponible:  imp.BaseImponible,
				Valor:          imp.Valor,
			})
		}
		c.Detalles = append(c.Detalles, d)
	}
	return c
}

// codigoNumerico genera los 8 dígitos aleatorios de la clave de acceso.
func codigoNumerico() string {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		// crypto/rand solo falla si el sistema no tiene fuente de entropía.
		return fmt.Sprintf("%08d", time.Now().UnixNano()%100_000_000)
	}
	return fmt.Sprintf("%08d", n.Int64())
}
