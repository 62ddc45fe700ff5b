package inventory

import "time"

// Table and column names follow the dashboard's existing MySQL schema.

type User struct {
	ID        int64     `gorm:"column:id_usuario;primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"column:username;size:100;not null" json:"username"`
	Password  string    `gorm:"column:password;size:255;not null" json:"-"`
	Role      string    `gorm:"column:role;size:20;not null;default:empleado" json:"role"` // admin, empleado, RH
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "usuarios" }

type Supplier struct {
	ID        int64     `gorm:"column:id_proveedor;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:nombre;size:100;not null" json:"name"`
	Phone     *string   `gorm:"column:telefono;size:20" json:"phone"`
	Email     *string   `gorm:"column:correo;size:100" json:"email"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Supplier) TableName() string { return "info_proveedor" }

// Product prices are decimal(10,2) columns carried as strings so no float rounding
// sneaks into stored values.
type Product struct {
	ID             int64     `gorm:"column:id_producto;primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"column:nombre_producto;size:150;not null" json:"name"`
	Total          int64     `gorm:"column:total;default:0" json:"total"`
	Unit           *string   `gorm:"column:unidad_medida;size:50" json:"unit"`
	UnitCost       *string   `gorm:"column:costo_por_unidad;type:decimal(10,2)" json:"unitCost"`
	Classification *string   `gorm:"column:clasificacion;size:100" json:"classification"`
	PublicPrice    *string   `gorm:"column:precio_publico;type:decimal(10,2)" json:"publicPrice"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Product) TableName() string { return "productos" }

type Machine struct {
	ID            int64     `gorm:"column:id_maquina;primaryKey;autoIncrement" json:"id"`
	Type          string    `gorm:"column:tipo_maquina;size:100;not null" json:"type"`
	Capacity      *string   `gorm:"column:capacidad;size:50" json:"capacity"`
	Transmission  *string   `gorm:"column:transmision;size:100" json:"transmission"`
	Motor         *string   `gorm:"column:motor;size:100" json:"motor"`
	HP            *string   `gorm:"column:hp;size:50" json:"hp"`
	PowerSupply   *string   `gorm:"column:corriente_luz;size:50" json:"powerSupply"`
	Material      *string   `gorm:"column:material_fabricacion;size:100" json:"material"`
	Usage         *string   `gorm:"column:uso;size:255" json:"usage"`
	Note          *string   `gorm:"column:comentario_adicional;type:text" json:"note"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Machine) TableName() string { return "maquinas" }

// AllModels lists the inventory tables for migration.
func AllModels() []interface{} {
	return []interface{}{&User{}, &Supplier{}, &Product{}, &Machine{}}
}
