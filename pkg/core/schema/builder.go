package schema

// Builder помогает строить списки колонок для динамических сущностей
type Builder struct {
	fields []FieldDef
}

// NewBuilder создает новый builder
func NewBuilder() *Builder {
	return &Builder{
		fields: []FieldDef{},
	}
}

// AddInteger добавляет INTEGER поле
func (b *Builder) AddInteger(name string, key bool) *Builder {
	b.fields = append(b.fields, FieldDef{
		Name: name,
		Type: TypeInteger,
		Key:  key,
	})
	return b
}

// AddReal добавляет REAL поле
func (b *Builder) AddReal(name string) *Builder {
	b.fields = append(b.fields, FieldDef{
		Name:     name,
		Type:     TypeReal,
		Nullable: true,
	})
	return b
}

// AddDecimal добавляет DECIMAL поле
func (b *Builder) AddDecimal(name string, precision, scale int) *Builder {
	if precision == 0 {
		precision = GetDefaultPrecision()
	}
	if scale == 0 {
		scale = GetDefaultScale()
	}

	b.fields = append(b.fields, FieldDef{
		Name:      name,
		Type:      TypeDecimal,
		Precision: precision,
		Scale:     scale,
		Nullable:  true,
	})
	return b
}

// AddText добавляет TEXT поле (length <= 0 - без ограничения)
func (b *Builder) AddText(name string, length int) *Builder {
	b.fields = append(b.fields, FieldDef{
		Name:     name,
		Type:     TypeText,
		Length:   length,
		Nullable: true,
	})
	return b
}

// AddBoolean добавляет BOOLEAN поле
func (b *Builder) AddBoolean(name string) *Builder {
	b.fields = append(b.fields, FieldDef{
		Name:     name,
		Type:     TypeBoolean,
		Nullable: true,
	})
	return b
}

// AddDatetime добавляет DATETIME поле
func (b *Builder) AddDatetime(name string) *Builder {
	b.fields = append(b.fields, FieldDef{
		Name:     name,
		Type:     TypeDatetime,
		Nullable: true,
	})
	return b
}

// AddBlob добавляет BLOB поле
func (b *Builder) AddBlob(name string) *Builder {
	b.fields = append(b.fields, FieldDef{
		Name:     name,
		Type:     TypeBlob,
		Nullable: true,
	})
	return b
}

// AddField добавляет произвольное поле
func (b *Builder) AddField(field FieldDef) *Builder {
	b.fields = append(b.fields, field)
	return b
}

// Key помечает уже добавленные поля как ключевые (NOT NULL)
func (b *Builder) Key(names ...string) *Builder {
	for _, name := range names {
		for i := range b.fields {
			if b.fields[i].Name == name {
				b.fields[i].Key = true
				b.fields[i].Nullable = false
			}
		}
	}
	return b
}

// Build возвращает копию накопленных полей
func (b *Builder) Build() []FieldDef {
	out := make([]FieldDef, len(b.fields))
	copy(out, b.fields)
	return out
}

// Reset очищает builder
func (b *Builder) Reset() *Builder {
	b.fields = []FieldDef{}
	return b
}

// FieldCount возвращает количество полей
func (b *Builder) FieldCount() int {
	return len(b.fields)
}

// HasKeyField проверяет наличие первичного ключа
func (b *Builder) HasKeyField() bool {
	for _, field := range b.fields {
		if field.Key {
			return true
		}
	}
	return false
}
