package inventory_tools

import (
	"testing"
)

func TestSearchProductsToolDeclaration(t *testing.T) {
	tool := NewToolset(&fakeRepository{}, nil).SearchProductsTool()
	if tool.Name != "search_products" {
		t.Errorf("expected name 'search_products', got %q", tool.Name)
	}
	if tool.Description == "" {
		t.Error("description should not be empty")
	}
	if tool.Handler == nil {
		t.Error("Handler should not be nil")
	}
	if tool.Parameters.Type != "object" {
		t.Errorf("expected object type, got %q", tool.Parameters.Type)
	}
	if _, ok := tool.Parameters.Properties["query"]; !ok {
		t.Error("expected 'query' property")
	}
	if len(tool.Parameters.Required) != 1 || tool.Parameters.Required[0] != "query" {
		t.Errorf("expected required=['query'], got %v", tool.Parameters.Required)
	}
	if tool.Mutating {
		t.Error("search must not be marked mutating")
	}
}

func TestUpdateProductToolDeclaration(t *testing.T) {
	tool := NewToolset(&fakeRepository{}, nil).UpdateProductTool()
	for _, prop := range []string{"id", "total", "publicPrice", "unitCost", "classification"} {
		if _, ok := tool.Parameters.Properties[prop]; !ok {
			t.Errorf("expected %q property", prop)
		}
	}
	if !tool.Mutating {
		t.Error("update_product should be mutating")
	}
}

func TestDefaultTools(t *testing.T) {
	tools := NewToolset(&fakeRepository{}, nil).DefaultTools()
	if len(tools) != 6 {
		t.Errorf("expected 6 default tools, got %d", len(tools))
	}

	names := map[string]bool{}
	for _, tool := range tools {
		names[tool.Name] = true
	}
	expected := []string{"search_products", "search_machines", "list_suppliers", "update_supplier", "update_product", "update_machine"}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("expected tool %q in DefaultTools", name)
		}
	}
}

func TestNewRegistry_Sealed(t *testing.T) {
	reg, err := NewRegistry(&fakeRepository{}, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if !reg.Sealed() {
		t.Error("registry should be sealed after startup wiring")
	}
	if reg.Len() != 6 {
		t.Errorf("expected 6 registered tools, got %d", reg.Len())
	}
}
