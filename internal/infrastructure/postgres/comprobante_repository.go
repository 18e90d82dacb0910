package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/facturaec/sri-core/internal/domain"
	"github.com/facturaec/sri-core/internal/domain/entity"
	"github.com/facturaec/sri-core/internal/domain/repository"
)

var _ repository.ComprobanteRepository = (*ComprobanteRepo)(nil)

// ComprobanteRepo implementa ComprobanteRepository sobre PostgreSQL.
// Acepta pool o tx (DB): sus métodos multi-statement abren su propia
// transacción, que anida con savepoint si ya hay una en curso.
type ComprobanteRepo struct {
	db DB
}

// NewComprobanteRepository construye el adaptador. Pasar pool o tx.
func NewComprobanteRepository(db DB) *ComprobanteRepo {
	return &ComprobanteRepo{db: db}
}

const columnasComprobante = `
	id, id_externo, tipo_comprobante, version, ambiente, tipo_emision,
	ruc_emisor, razon_social, nombre_comercial, direccion_matriz,
	clave_acceso, establecimiento, punto_emision, secuencial, fecha_emision,
	contraparte_tipo_id, contraparte_identificacion, contraparte_razon_social, contraparte_direccion,
	estado,
	total_sin_impuestos, total_descuento, total_impuestos, importe_total,
	COALESCE(xml_firmado, ''), COALESCE(numero_autorizacion, ''), fecha_autorizacion,
	reintentos, requiere_reenvio, proximo_reintento,
	COALESCE(motivo_anulacion, ''), COALESCE(anulado_por, ''),
	created_at, updated_at`

// Crear persiste cabecera, detalles, impuestos y la entrada inicial del
// historial en una sola transacción.
func (r *ComprobanteRepo) Crear(ctx context.Context, c *entity.Comprobante, historial *entity.HistorialEstado) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO comprobantes (
			id, id_externo, tipo_comprobante, version, ambiente, tipo_emision,
			ruc_emisor, razon_social, nombre_comercial, direccion_matriz,
			clave_acceso, establecimiento, punto_emision, secuencial, fecha_emision,
			contraparte_tipo_id, contraparte_identificacion, contraparte_razon_social, contraparte_direccion,
			estado,
			total_sin_impuestos, total_descuento, total_impuestos, importe_total,
			reintentos, requiere_reenvio,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		        $21, $22, $23, $24, $25, $26, now(), now())`
	_, err = tx.Exec(ctx, q,
		c.ID, nullIfEmpty(c.IDExterno), c.TipoComprobante, string(c.Version), c.Ambiente, c.TipoEmision,
		c.RUCEmisor, c.RazonSocial, c.NombreComercial, c.DireccionMatriz,
		c.ClaveAcceso, c.Establecimiento, c.PuntoEmision, c.Secuencial, c.FechaEmision,
		c.ContraparteTipoID, c.ContraparteIdentificacion, c.ContraparteRazonSocial, nullIfEmpty(c.ContraparteDireccion),
		string(c.Estado),
		c.TotalSinImpuestos, c.TotalDescuento, c.TotalImpuestos, c.ImporteTotal,
		c.Reintentos, c.RequiereReenvio,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("clave de acceso o secuencial duplicado: %w", domain.ErrDuplicado)
		}
		return fmt.Errorf("insert comprobante: %w", err)
	}

	for _, d := range c.Detalles {
		if err := r.crearDetalle(ctx, tx, c.ID, d); err != nil {
			return err
		}
	}
	if historial != nil {
		historial.ComprobanteID = c.ID
		if err := insertarHistorial(ctx, tx, historial); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *ComprobanteRepo) crearDetalle(ctx context.Context, q Querier, comprobanteID string, d *entity.Detalle) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.ComprobanteID = comprobanteID
	const insDetalle = `
		INSERT INTO comprobante_detalles (
			id, comprobante_id, numero_linea, codigo_principal, codigo_auxiliar,
			descripcion, cantidad, precio_unitario, descuento, precio_total_sin_impuesto)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := q.Exec(ctx, insDetalle,
		d.ID, d.ComprobanteID, d.NumeroLinea, nullIfEmpty(d.CodigoPrincipal), nullIfEmpty(d.CodigoAuxiliar),
		d.Descripcion, d.Cantidad, d.PrecioUnitario, d.Descuento, d.PrecioTotalSinImpuesto,
	)
	if err != nil {
		return fmt.Errorf("insert detalle: %w", err)
	}
	const insImpuesto = `
		INSERT INTO detalle_impuestos (
			id, detalle_id, codigo_impuesto, codigo_tarifa, tarifa, base_imponible, valor)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, imp := range d.Impuestos {
		if imp.ID == "" {
			imp.ID = uuid.New().String()
		}
		imp.DetalleID = d.ID
		_, err := q.Exec(ctx, insImpuesto,
			imp.ID, imp.DetalleID, imp.CodigoImpuesto, imp.CodigoTarifa,
			imp.Tarifa, imp.BaseImponible, imp.Valor,
		)
		if err != nil {
			return fmt.Errorf("insert impuesto de detalle: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el comprobante completo, con detalles e impuestos.
func (r *ComprobanteRepo) GetByID(ctx context.Context, id string) (*entity.Comprobante, error) {
	return r.getBy(ctx, "id", id)
}

// GetByClaveAcceso obtiene el comprobante completo por su clave de acceso.
func (r *ComprobanteRepo) GetByClaveAcceso(ctx context.Context, claveAcceso string) (*entity.Comprobante, error) {
	return r.getBy(ctx, "clave_acceso", claveAcceso)
}

func (r *ComprobanteRepo) getBy(ctx context.Context, columna, valor string) (*entity.Comprobante, error) {
	q := `SELECT ` + columnasComprobante + ` FROM comprobantes WHERE ` + columna + ` = $1`
	c, err := scanComprobante(r.db.QueryRow(ctx, q, valor))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get comprobante: %w", err)
	}
	if err := r.cargarDetalles(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ComprobanteRepo) cargarDetalles(ctx context.Context, c *entity.Comprobante) error {
	const q = `
		SELECT id, comprobante_id, numero_linea, COALESCE(codigo_principal, ''), COALESCE(codigo_auxiliar, ''),
		       descripcion, cantidad, precio_unitario, descuento, precio_total_sin_impuesto
		FROM comprobante_detalles WHERE comprobante_id = $1 ORDER BY numero_linea`
	rows, err := r.db.Query(ctx, q, c.ID)
	if err != nil {
		return fmt.Errorf("list detalles: %w", err)
	}
	defer rows.Close()
	porID := make(map[string]*entity.Detalle)
	for rows.Next() {
		var d entity.Detalle
		if err := rows.Scan(&d.ID, &d.ComprobanteID, &d.NumeroLinea, &d.CodigoPrincipal, &d.CodigoAuxiliar,
			&d.Descripcion, &d.Cantidad, &d.PrecioUnitario, &d.Descuento, &d.PrecioTotalSinImpuesto); err != nil {
			return fmt.Errorf("scan detalle: %w", err)
		}
		c.Detalles = append(c.Detalles, &d)
		porID[d.ID] = &d
	}
	if err := rows.Err(); err != nil {
		return err
	}

	const qi = `
		SELECT i.id, i.detalle_id, i.codigo_impuesto, i.codigo_tarifa, i.tarifa, i.base_imponible, i.valor
		FROM detalle_impuestos i
		JOIN comprobante_detalles d ON d.id = i.detalle_id
		WHERE d.comprobante_id = $1
		ORDER BY d.numero_linea, i.codigo_impuesto`
	irows, err := r.db.Query(ctx, qi, c.ID)
	if err != nil {
		return fmt.Errorf("list impuestos: %w", err)
	}
	defer irows.Close()
	for irows.Next() {
		var imp entity.ImpuestoDetalle
		if err := irows.Scan(&imp.ID, &imp.DetalleID, &imp.CodigoImpuesto, &imp.CodigoTarifa,
			&imp.Tarifa, &imp.BaseImponible, &imp.Valor); err != nil {
			return fmt.Errorf("scan impuesto: %w", err)
		}
		if d, ok := porID[imp.DetalleID]; ok {
			d.Impuestos = append(d.Impuestos, &imp)
		}
	}
	return irows.Err()
}

// ActualizarEstado actualiza estado y bookkeeping del comprobante y añade la
// entrada de historial en la misma transacción: ambos o ninguno.
func (r *ComprobanteRepo) ActualizarEstado(ctx context.Context, c *entity.Comprobante, historial *entity.HistorialEstado) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `
		UPDATE comprobantes
		SET estado              = $2,
		    xml_firmado         = COALESCE($3, xml_firmado),
		    numero_autorizacion = COALESCE($4, numero_autorizacion),
		    fecha_autorizacion  = COALESCE($5, fecha_autorizacion),
		    reintentos          = $6,
		    requiere_reenvio    = $7,
		    proximo_reintento   = $8,
		    motivo_anulacion    = COALESCE($9, motivo_anulacion),
		    anulado_por         = COALESCE($10, anulado_por),
		    updated_at          = now()
		WHERE id = $1`
	tag, err := tx.Exec(ctx, q,
		c.ID, string(c.Estado),
		nullIfEmpty(c.XMLFirmado), nullIfEmpty(c.NumeroAutorizacion), c.FechaAutorizacion,
		c.Reintentos, c.RequiereReenvio, c.ProximoReintento,
		nullIfEmpty(c.MotivoAnulacion), nullIfEmpty(c.AnuladoPor),
	)
	if err != nil {
		return fmt.Errorf("update comprobante: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if historial != nil {
		historial.ComprobanteID = c.ID
		if err := insertarHistorial(ctx, tx, historial); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Historial devuelve las transiciones del comprobante en orden cronológico.
func (r *ComprobanteRepo) Historial(ctx context.Context, comprobanteID string) ([]*entity.HistorialEstado, error) {
	const q = `
		SELECT id, comprobante_id, estado_anterior, estado_nuevo, fecha, actor,
		       COALESCE(request_id, ''), COALESCE(codigo_respuesta, ''), COALESCE(respuesta_cruda, ''),
		       reintento, proximo_reintento, COALESCE(errores, '[]')
		FROM historial_estados
		WHERE comprobante_id = $1
		ORDER BY fecha, id`
	rows, err := r.db.Query(ctx, q, comprobanteID)
	if err != nil {
		return nil, fmt.Errorf("list historial: %w", err)
	}
	defer rows.Close()
	var list []*entity.HistorialEstado
	for rows.Next() {
		var h entity.HistorialEstado
		var errores []byte
		if err := rows.Scan(&h.ID, &h.ComprobanteID, &h.EstadoAnterior, &h.EstadoNuevo, &h.Fecha, &h.Actor,
			&h.RequestID, &h.CodigoRespuesta, &h.RespuestaCruda,
			&h.Reintento, &h.ProximoReintento, &errores); err != nil {
			return nil, fmt.Errorf("scan historial: %w", err)
		}
		if err := json.Unmarshal(errores, &h.Errores); err != nil {
			return nil, fmt.Errorf("decode errores de historial: %w", err)
		}
		list = append(list, &h)
	}
	return list, rows.Err()
}

// ListarPendientes devuelve comprobantes marcados para reenvío cuyo próximo
// reintento ya venció (o nunca se agendó): firmas fallidas en CREADO y pasos
// del WS pendientes en FIRMADO o ENVIADO.
func (r *ComprobanteRepo) ListarPendientes(ctx context.Context, antesDe time.Time, limite int) ([]*entity.Comprobante, error) {
	q := `SELECT ` + columnasComprobante + `
		FROM comprobantes
		WHERE estado IN ($1, $2, $3)
		  AND requiere_reenvio
		  AND reintentos < $4
		  AND (proximo_reintento IS NULL OR proximo_reintento <= $5)
		ORDER BY proximo_reintento NULLS FIRST, created_at
		LIMIT $6`
	rows, err := r.db.Query(ctx, q,
		string(entity.EstadoCreado), string(entity.EstadoFirmado), string(entity.EstadoEnviado),
		entity.MaxReintentos, antesDe, limite,
	)
	if err != nil {
		return nil, fmt.Errorf("list pendientes: %w", err)
	}
	defer rows.Close()
	var list []*entity.Comprobante
	for rows.Next() {
		c, err := scanComprobante(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comprobante pendiente: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func insertarHistorial(ctx context.Context, q Querier, h *entity.HistorialEstado) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.Fecha.IsZero() {
		h.Fecha = time.Now()
	}
	errores, err := json.Marshal(h.Errores)
	if err != nil {
		return fmt.Errorf("encode errores de historial: %w", err)
	}
	const ins = `
		INSERT INTO historial_estados (
			id, comprobante_id, estado_anterior, estado_nuevo, fecha, actor,
			request_id, codigo_respuesta, respuesta_cruda, reintento, proximo_reintento, errores)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = q.Exec(ctx, ins,
		h.ID, h.ComprobanteID, string(h.EstadoAnterior), string(h.EstadoNuevo), h.Fecha, h.Actor,
		nullIfEmpty(h.RequestID), nullIfEmpty(h.CodigoRespuesta), nullIfEmpty(h.RespuestaCruda),
		h.Reintento, h.ProximoReintento, errores,
	)
	if err != nil {
		return fmt.Errorf("insert historial: %w", err)
	}
	return nil
}

func scanComprobante(row pgxScanner) (*entity.Comprobante, error) {
	var c entity.Comprobante
	var idExterno, contraparteDireccion *string
	err := row.Scan(
		&c.ID, &idExterno, &c.TipoComprobante, &c.Version, &c.Ambiente, &c.TipoEmision,
		&c.RUCEmisor, &c.RazonSocial, &c.NombreComercial, &c.DireccionMatriz,
		&c.ClaveAcceso, &c.Establecimiento, &c.PuntoEmision, &c.Secuencial, &c.FechaEmision,
		&c.ContraparteTipoID, &c.ContraparteIdentificacion, &c.ContraparteRazonSocial, &contraparteDireccion,
		&c.Estado,
		&c.TotalSinImpuestos, &c.TotalDescuento, &c.TotalImpuestos, &c.ImporteTotal,
		&c.XMLFirmado, &c.NumeroAutorizacion, &c.FechaAutorizacion,
		&c.Reintentos, &c.RequiereReenvio, &c.ProximoReintento,
		&c.MotivoAnulacion, &c.AnuladoPor,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if idExterno != nil {
		c.IDExterno = *idExterno
	}
	if contraparteDireccion != nil {
		c.ContraparteDireccion = *contraparteDireccion
	}
	return &c, nil
}
