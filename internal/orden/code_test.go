package orden

import (
	"errors"
	"testing"

	"taller_orders/internal/errs"
	"taller_orders/internal/model"
)

func TestNextCodigoStartsAtOneAndIncrements(t *testing.T) {
	db := testDB(t)

	codigo, err := nextCodigo(db, 2025)
	if err != nil {
		t.Fatalf("nextCodigo: %v", err)
	}
	if codigo != "ORD-2025-0001" {
		t.Fatalf("codigo: %s", codigo)
	}

	seed := func(c string) {
		t.Helper()
		if err := db.Create(&model.Order{
			Codigo: c, CustomerID: 1, VehicleID: 1,
			Estado: model.EstadoPendiente, Modo: model.ModoServiciosYProductos, Activo: true,
		}).Error; err != nil {
			t.Fatalf("seed %s: %v", c, err)
		}
	}
	seed("ORD-2025-0001")
	seed("ORD-2025-0007")
	seed("ORD-2024-0042") // otro año, no cuenta

	codigo, err = nextCodigo(db, 2025)
	if err != nil {
		t.Fatalf("nextCodigo: %v", err)
	}
	if codigo != "ORD-2025-0008" {
		t.Fatalf("codigo: %s", codigo)
	}

	// El año nuevo arranca su propia secuencia.
	codigo, err = nextCodigo(db, 2026)
	if err != nil {
		t.Fatalf("nextCodigo: %v", err)
	}
	if codigo != "ORD-2026-0001" {
		t.Fatalf("codigo: %s", codigo)
	}
}

// La secuencia sigue en numerico al pasar de cuatro a cinco digitos:
// por orden lexicografico "9999" quedaria por encima de "10000" y el
// generador repetiria candidatos ya tomados.
func TestNextCodigoCrossesFourDigitBoundary(t *testing.T) {
	db := testDB(t)

	seed := func(c string) {
		t.Helper()
		if err := db.Create(&model.Order{
			Codigo: c, CustomerID: 1, VehicleID: 1,
			Estado: model.EstadoPendiente, Modo: model.ModoServiciosYProductos, Activo: true,
		}).Error; err != nil {
			t.Fatalf("seed %s: %v", c, err)
		}
	}
	seed("ORD-2025-9999")

	codigo, err := nextCodigo(db, 2025)
	if err != nil {
		t.Fatalf("nextCodigo: %v", err)
	}
	if codigo != "ORD-2025-10000" {
		t.Fatalf("codigo: %s", codigo)
	}

	seed("ORD-2025-10000")
	codigo, err = nextCodigo(db, 2025)
	if err != nil {
		t.Fatalf("nextCodigo: %v", err)
	}
	if codigo != "ORD-2025-10001" {
		t.Fatalf("codigo: %s", codigo)
	}
}

func TestRetryOnUniqueConflict(t *testing.T) {
	// Conflictos transitorios: reintenta y termina bien.
	calls := 0
	err := retryOnUniqueConflict(3, func() error {
		calls++
		if calls < 3 {
			return errors.New("UNIQUE constraint failed: orders.codigo")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}

	// Errores ajenos al indice unico no se reintentan.
	calls = 0
	boom := errors.New("disk I/O error")
	err = retryOnUniqueConflict(3, func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}

	// Conflicto persistente: agota intentos y sale 409.
	calls = 0
	err = retryOnUniqueConflict(3, func() error {
		calls++
		return errors.New("UNIQUE constraint failed: orders.codigo")
	})
	if calls != 3 {
		t.Fatalf("calls=%d", calls)
	}
	if errs.HTTPStatus(err) != 409 {
		t.Fatalf("status: %d (%v)", errs.HTTPStatus(err), err)
	}
}
