package initwfn

import (
	"encoding/json"
	"testing"
)

func TestJSONRoundTrip(t *testing.T) {
	glorot, _ := NewGlorotU(1.5)
	uniform, _ := NewUniform(-0.1, 0.1)
	zeroes, _ := NewZeroes()
	constant, _ := NewConstant(0.4)

	for _, init := range []*InitWFn{glorot, uniform, zeroes, constant} {
		data, err := json.Marshal(init)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		var decoded InitWFn
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}

		if decoded.Type != init.Type {
			t.Errorf("unmarshal: type \n\twant(%v)\n\thave(%v)", init.Type,
				decoded.Type)
		}
		if decoded.Config != init.Config {
			t.Errorf("unmarshal: config \n\twant(%v)\n\thave(%v)",
				init.Config, decoded.Config)
		}
		if decoded.InitWFn() == nil {
			t.Errorf("unmarshal: initializer not created for %v", init.Type)
		}
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	var init InitWFn
	err := json.Unmarshal([]byte(`{"Type":"Orthogonal","Config":{}}`), &init)
	if err == nil {
		t.Errorf("unmarshal: expected error for unknown type")
	}
}
