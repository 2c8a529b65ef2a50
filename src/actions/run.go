package actions

import (
	"context"
	"os"
	"strings"
)

const menuText = `1) Actualizar a hoy
2) Actualizar rango de fechas
3) Actualizar una fecha
4) Consultar una fecha
5) Importar clientes (XML)
0) Salir`

// Run shows the menu until the user exits, the input ends or ctx is done.
// Action failures are already reported to the user and do not stop the loop.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		choice, ok, err := m.ui.Prompt(ctx, appTitle, menuText+"\nOpción")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		switch strings.TrimSpace(choice) {
		case "1":
			_, _ = m.UpdateToToday(ctx)
		case "2":
			_, _ = m.UpdateRange(ctx)
		case "3":
			_, _ = m.UpdateDate(ctx)
		case "4":
			_, _ = m.QueryDate(ctx)
		case "5":
			_ = m.importFromPath(ctx)
		case "0", "q", "salir":
			return nil
		default:
			m.inform(ctx, appTitle, "Opción desconocida: "+choice)
		}
	}
}

func (m *Menu) importFromPath(ctx context.Context) error {
	const action = "Importar clientes"
	path, ok, err := m.ui.Prompt(ctx, action, "Ruta del archivo XML")
	if err != nil || !ok {
		_, err = m.cancelled(ctx, action, err)
		return err
	}
	f, err := os.Open(strings.TrimSpace(path))
	if err != nil {
		return m.fail(ctx, action, err)
	}
	defer f.Close()
	_, err = m.ImportCustomers(ctx, f)
	return err
}
