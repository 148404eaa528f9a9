package templates

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

const htmlFooter = `
  <div style="text-align: center; margin-top: 30px; color: #6c757d; font-size: 12px;">
    <p>Sistema de Gestión de Inventario</p>
    <p>{{.Footer}}</p>
  </div>
</div>`

const lowStockHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #f8d7da; color: #721c24; padding: 20px; border-radius: 5px; margin-bottom: 20px;">
    <h2 style="margin: 0;">⚠️ Alerta de Stock Bajo</h2>
  </div>
  <div style="padding: 20px; background-color: #f8f9fa; border-radius: 5px;">
    <h3>Producto: {{.Name}}</h3>
    <p><strong>Código:</strong> {{.Code}}</p>
    <p><strong>Stock actual:</strong> {{.CurrentStock}} unidades</p>
    <p><strong>Stock mínimo:</strong> {{.MinimumStock}} unidades</p>
    <p><strong>Categoría:</strong> {{.Category}}</p>
    <div style="background-color: #fff3cd; color: #856404; padding: 15px; border-radius: 5px; margin-top: 20px;">
      <strong>Acción requerida:</strong> Es necesario reabastecer este producto lo antes posible.
    </div>
  </div>` + htmlFooter

const lowStockText = `ALERTA: Stock bajo - {{.Name}}

Producto: {{.Name}}
Código: {{.Code}}
Stock actual: {{.CurrentStock}} unidades
Stock mínimo: {{.MinimumStock}} unidades
Categoría: {{.Category}}

Acción requerida: Es necesario reabastecer este producto lo antes posible.

Sistema de Gestión de Inventario
{{.Footer}}
`

const expirationHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #fff3cd; color: #856404; padding: 20px; border-radius: 5px; margin-bottom: 20px;">
    <h2 style="margin: 0;">⏰ Alerta de Vencimiento</h2>
  </div>
  <div style="padding: 20px; background-color: #f8f9fa; border-radius: 5px;">
    <h3>Producto: {{.Name}}</h3>
    <p><strong>Código:</strong> {{.Code}}</p>
    <p><strong>Días restantes:</strong> {{.DaysRemaining}} días</p>
    <p><strong>Fecha de vencimiento:</strong> {{.ExpirationDate}}</p>
    <p><strong>Stock actual:</strong> {{.Stock}} unidades</p>
    <p><strong>Categoría:</strong> {{.Category}}</p>
    <div style="{{.ActionStyle}}">
      <strong>Acción requerida:</strong> {{.UrgentPrefix}}Revisar el producto y tomar las medidas necesarias antes del vencimiento.
    </div>
  </div>` + htmlFooter

const expirationText = `ALERTA: Producto próximo a vencer - {{.Name}}

Producto: {{.Name}}
Código: {{.Code}}
Días restantes: {{.DaysRemaining}} días
Fecha de vencimiento: {{.ExpirationDate}}
Stock actual: {{.Stock}} unidades
Categoría: {{.Category}}

Acción requerida: {{.UrgentPrefix}}Revisar el producto y tomar las medidas necesarias antes del vencimiento.

Sistema de Gestión de Inventario
{{.Footer}}
`

const reportHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #d4edda; color: #155724; padding: 20px; border-radius: 5px; margin-bottom: 20px;">
    <h2 style="margin: 0;">📊 Reporte de Inventario</h2>
  </div>
  <div style="padding: 20px; background-color: #f8f9fa; border-radius: 5px;">
    <h3>Resumen del Inventario</h3>
    <table style="width: 100%; border-collapse: collapse;">
      <tr style="background-color: #e9ecef;">
        <td style="padding: 10px; border: 1px solid #dee2e6;"><strong>Total de productos</strong></td>
        <td style="padding: 10px; border: 1px solid #dee2e6;">{{.TotalProducts}}</td>
      </tr>
      <tr>
        <td style="padding: 10px; border: 1px solid #dee2e6;"><strong>Valor total del inventario</strong></td>
        <td style="padding: 10px; border: 1px solid #dee2e6;">${{.TotalValue}}</td>
      </tr>
      <tr style="background-color: #e9ecef;">
        <td style="padding: 10px; border: 1px solid #dee2e6;"><strong>Productos con stock bajo</strong></td>
        <td style="padding: 10px; border: 1px solid #dee2e6;">{{.LowStockProducts}}</td>
      </tr>
      <tr>
        <td style="padding: 10px; border: 1px solid #dee2e6;"><strong>Productos sin stock</strong></td>
        <td style="padding: 10px; border: 1px solid #dee2e6;">{{.OutOfStockProducts}}</td>
      </tr>
    </table>
  </div>` + htmlFooter

const reportText = `REPORTE DE INVENTARIO - {{.Date}}

Resumen del Inventario:
- Total de productos: {{.TotalProducts}}
- Valor total del inventario: ${{.TotalValue}}
- Productos con stock bajo: {{.LowStockProducts}}
- Productos sin stock: {{.OutOfStockProducts}}

Sistema de Gestión de Inventario
{{.Footer}}
`

type layout struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

var layouts = map[Kind]layout{
	KindLowStock: {
		html: htmltemplate.Must(htmltemplate.New("stockBajo.html").Parse(lowStockHTML)),
		text: texttemplate.Must(texttemplate.New("stockBajo.txt").Parse(lowStockText)),
	},
	KindExpiration: {
		html: htmltemplate.Must(htmltemplate.New("vencimiento.html").Parse(expirationHTML)),
		text: texttemplate.Must(texttemplate.New("vencimiento.txt").Parse(expirationText)),
	},
	KindInventoryReport: {
		html: htmltemplate.Must(htmltemplate.New("reporteInventario.html").Parse(reportHTML)),
		text: texttemplate.Must(texttemplate.New("reporteInventario.txt").Parse(reportText)),
	},
}
