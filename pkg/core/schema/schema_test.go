package schema

import (
	"errors"
	"testing"
	"time"
)

func TestTypeValidation(t *testing.T) {
	tests := []struct {
		dataType DataType
		valid    bool
	}{
		{TypeInteger, true},
		{TypeInt, true},
		{TypeReal, true},
		{TypeDecimal, true},
		{TypeText, true},
		{TypeBoolean, true},
		{TypeDate, true},
		{TypeTimestamp, true},
		{TypeUUID, true},
		{DataType("varchar"), true},
		{DataType("INVALID"), false},
	}

	for _, tt := range tests {
		result := IsValidType(tt.dataType)
		if result != tt.valid {
			t.Errorf("IsValidType(%s) = %v, want %v", tt.dataType, result, tt.valid)
		}
	}
}

func TestTypeNormalization(t *testing.T) {
	tests := []struct {
		input    DataType
		expected DataType
	}{
		{TypeInt, TypeInteger},
		{TypeInteger, TypeInteger},
		{TypeFloat, TypeReal},
		{TypeDouble, TypeReal},
		{TypeVarchar, TypeText},
		{TypeBool, TypeBoolean},
		{DataType("string"), TypeText},
	}

	for _, tt := range tests {
		result := NormalizeType(tt.input)
		if result != tt.expected {
			t.Errorf("NormalizeType(%s) = %s, want %s", tt.input, result, tt.expected)
		}
	}
}

func TestParseDataType(t *testing.T) {
	tests := []struct {
		input   string
		want    FieldDef
		wantErr bool
	}{
		{"integer", FieldDef{Type: TypeInteger}, false},
		{"TEXT(100)", FieldDef{Type: TypeText, Length: 100}, false},
		{"varchar(20)", FieldDef{Type: TypeText, Length: 20}, false},
		{"DECIMAL(18,4)", FieldDef{Type: TypeDecimal, Precision: 18, Scale: 4}, false},
		{"DECIMAL(10)", FieldDef{Type: TypeDecimal, Precision: 10}, false},
		{"TEXT(1,2)", FieldDef{}, true},
		{"TEXT(abc)", FieldDef{}, true},
		{"TEXT(10", FieldDef{}, true},
		{"GEOMETRY", FieldDef{}, true},
		{"", FieldDef{}, true},
	}

	for _, tt := range tests {
		got, err := ParseDataType(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDataType(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDataType(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDataType(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestConverterInteger(t *testing.T) {
	converter := NewConverter()
	field := FieldDef{
		Name:     "TestInt",
		Type:     TypeInteger,
		Nullable: true,
	}

	// Valid integer
	v, err := converter.ParseValue("12345", field)
	if err != nil {
		t.Fatalf("Failed to parse valid integer: %v", err)
	}
	if v != int64(12345) {
		t.Errorf("Expected 12345, got %v", v)
	}

	// Invalid integer
	_, err = converter.ParseValue("abc", field)
	if err == nil {
		t.Error("Expected error for invalid integer")
	}

	// NULL value
	v, err = converter.ParseValue("", field)
	if err != nil {
		t.Fatalf("Failed to parse NULL: %v", err)
	}
	if v != nil {
		t.Errorf("Expected NULL, got %v", v)
	}
}

func TestConverterNotNullable(t *testing.T) {
	converter := NewConverter()
	field := FieldDef{Name: "ID", Type: TypeInteger, Key: true}

	_, err := converter.ParseValue("", field)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Field != "ID" {
		t.Errorf("Expected field ID, got %s", verr.Field)
	}
}

func TestConverterText(t *testing.T) {
	converter := NewConverter()
	field := FieldDef{Name: "Name", Type: TypeText, Length: 5}

	// Пустая строка для TEXT - это значение, а не NULL
	v, err := converter.ParseValue("", field)
	if err != nil {
		t.Fatalf("Failed to parse empty text: %v", err)
	}
	if v != "" {
		t.Errorf("Expected empty string, got %v", v)
	}

	// Длина считается в символах
	if _, err := converter.ParseValue("Привет", field); err == nil {
		t.Error("Expected length error for 6-rune value")
	}
	if _, err := converter.ParseValue("Прив", field); err != nil {
		t.Errorf("Unexpected error for 4-rune value: %v", err)
	}
}

func TestConverterDecimal(t *testing.T) {
	converter := NewConverter()
	field := FieldDef{Name: "Amount", Type: TypeDecimal, Precision: 6, Scale: 2, Nullable: true}

	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"1234.56", false},
		{"-12.5", false},
		{"12345.67", true},
		{"1.234", true},
		{"abc", true},
	}

	for _, tt := range tests {
		v, err := converter.ParseValue(tt.raw, field)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseValue(%q) expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseValue(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if v != tt.raw {
			t.Errorf("ParseValue(%q) = %v", tt.raw, v)
		}
	}
}

func TestConverterBooleanAndDates(t *testing.T) {
	converter := NewConverter()

	v, err := converter.ParseValue("yes", FieldDef{Name: "Active", Type: TypeBoolean})
	if err != nil || v != true {
		t.Errorf("Expected true, got %v (%v)", v, err)
	}
	if _, err := converter.ParseValue("maybe", FieldDef{Name: "Active", Type: TypeBoolean}); err == nil {
		t.Error("Expected error for invalid boolean")
	}

	v, err = converter.ParseValue("2024-03-15T10:30:00Z", FieldDef{Name: "D", Type: TypeDate})
	if err != nil {
		t.Fatalf("Failed to parse date: %v", err)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !v.(time.Time).Equal(want) {
		t.Errorf("Expected %v, got %v", want, v)
	}

	v, err = converter.ParseValue("2024-03-15 10:30:00", FieldDef{Name: "TS", Type: TypeTimestamp})
	if err != nil {
		t.Fatalf("Failed to parse timestamp: %v", err)
	}
	if v.(time.Time).Hour() != 10 {
		t.Errorf("Expected hour 10, got %v", v)
	}
}

func TestConverterUUIDAndBlob(t *testing.T) {
	converter := NewConverter()

	v, err := converter.ParseValue("6F9619FF-8B86-D011-B42D-00C04FC964FF", FieldDef{Name: "G", Type: TypeUUID})
	if err != nil {
		t.Fatalf("Failed to parse uuid: %v", err)
	}
	if v != "6f9619ff-8b86-d011-b42d-00c04fc964ff" {
		t.Errorf("Unexpected uuid %v", v)
	}

	v, err = converter.ParseValue("AQID", FieldDef{Name: "B", Type: TypeBlob})
	if err != nil {
		t.Fatalf("Failed to parse blob: %v", err)
	}
	if b := v.([]byte); len(b) != 3 || b[2] != 3 {
		t.Errorf("Unexpected blob %v", v)
	}
}

func TestBuilder(t *testing.T) {
	fields := NewBuilder().
		AddInteger("ID", true).
		AddText("Name", 100).
		AddDecimal("Balance", 0, 0).
		AddBoolean("IsActive").
		AddDatetime("CreatedAt").
		Build()

	if len(fields) != 5 {
		t.Fatalf("Expected 5 fields, got %d", len(fields))
	}
	if !fields[0].Key || fields[0].Nullable {
		t.Error("ID should be a non-nullable key")
	}
	if fields[2].Precision != 18 || fields[2].Scale != 2 {
		t.Errorf("Expected default DECIMAL(18,2), got (%d,%d)", fields[2].Precision, fields[2].Scale)
	}
	if err := ValidateColumns(fields); err != nil {
		t.Errorf("Built columns should be valid: %v", err)
	}
}

func TestBuilderKey(t *testing.T) {
	b := NewBuilder().AddText("Code", 10).AddText("Region", 10)
	if b.HasKeyField() {
		t.Fatal("No key expected yet")
	}
	b.Key("Code", "Region")

	keys := KeyFields(b.Build())
	if len(keys) != 2 {
		t.Fatalf("Expected 2 keys, got %d", len(keys))
	}
	for _, k := range keys {
		if k.Nullable {
			t.Errorf("Key %s must not be nullable", k.Name)
		}
	}
	if b.Reset().FieldCount() != 0 {
		t.Error("Reset should clear fields")
	}
}

func TestValidateColumns(t *testing.T) {
	tests := []struct {
		name    string
		fields  []FieldDef
		wantErr bool
	}{
		{"empty", nil, true},
		{"empty name", []FieldDef{{Name: " ", Type: TypeText}}, true},
		{"duplicate", []FieldDef{{Name: "Id", Type: TypeInteger}, {Name: "ID", Type: TypeText}}, true},
		{"bad type", []FieldDef{{Name: "X", Type: "GEOMETRY"}}, true},
		{"explicit sql type", []FieldDef{{Name: "X", Type: "GEOMETRY", SQLType: "geography"}}, false},
		{"bad precision", []FieldDef{{Name: "X", Type: TypeDecimal, Precision: 50}}, true},
		{"bad scale", []FieldDef{{Name: "X", Type: TypeDecimal, Precision: 5, Scale: 6}}, true},
		{"nullable key", []FieldDef{{Name: "X", Type: TypeInteger, Key: true, Nullable: true}}, true},
		{"ok", []FieldDef{{Name: "X", Type: TypeInteger, Key: true}, {Name: "Y", Type: TypeText, Nullable: true}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumns(tt.fields)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateColumns() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
