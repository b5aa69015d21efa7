package condition

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Marshal encodes a tree as JSON. Every node carries a "kind"
// discriminator next to its payload.
func Marshal(n Node) ([]byte, error) {
	if n == nil {
		return nil, errors.New("condition: marshal nil node")
	}
	return json.Marshal(n)
}

// Unmarshal decodes a tree from its JSON form. A kind outside the
// decoder table is an error, never a silently dropped node.
func Unmarshal(data []byte) (Node, error) {
	var env struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("condition: decode node: %w", err)
	}
	if env.Kind == "" {
		return nil, errors.New("condition: node has no kind")
	}
	dec, ok := decoders[env.Kind]
	if !ok {
		return nil, fmt.Errorf("condition: unknown kind %q", env.Kind)
	}
	return dec(data)
}

// tagged marshals payload and splices the kind discriminator in front
// of its fields. payload must not implement json.Marshaler.
func tagged(k Kind, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	tag := append([]byte(`{"kind":`), []byte(fmt.Sprintf("%q", string(k)))...)
	if len(raw) > 2 {
		tag = append(tag, ',')
	}
	return append(tag, raw[1:]...), nil
}

func (n All) MarshalJSON() ([]byte, error) { type plain All; return tagged(KindAll, plain(n)) }
func (n Any) MarshalJSON() ([]byte, error) { type plain Any; return tagged(KindAny, plain(n)) }
func (n Not) MarshalJSON() ([]byte, error) { type plain Not; return tagged(KindNot, plain(n)) }

func (n PillarEquals) MarshalJSON() ([]byte, error) {
	type plain PillarEquals
	return tagged(KindPillarEquals, plain(n))
}

func (n PillarIn) MarshalJSON() ([]byte, error) {
	type plain PillarIn
	return tagged(KindPillarIn, plain(n))
}

func (n MainStarInPillar) MarshalJSON() ([]byte, error) {
	type plain MainStarInPillar
	return tagged(KindMainStarInPillar, plain(n))
}

func (n TenGodsSub) MarshalJSON() ([]byte, error) {
	type plain TenGodsSub
	return tagged(KindTenGodsSub, plain(n))
}

func (n TenGodsTotal) MarshalJSON() ([]byte, error) {
	type plain TenGodsTotal
	return tagged(KindTenGodsTotal, plain(n))
}

func (n BranchesCount) MarshalJSON() ([]byte, error) {
	type plain BranchesCount
	return tagged(KindBranchesCount, plain(n))
}

func (n ElementTotal) MarshalJSON() ([]byte, error) {
	type plain ElementTotal
	return tagged(KindElementTotal, plain(n))
}

func (n DeitiesInPillar) MarshalJSON() ([]byte, error) {
	type plain DeitiesInPillar
	return tagged(KindDeitiesInPillar, plain(n))
}

func (n DeitiesInAny) MarshalJSON() ([]byte, error) {
	type plain DeitiesInAny
	return tagged(KindDeitiesInAny, plain(n))
}

func (n PillarRelation) MarshalJSON() ([]byte, error) {
	type plain PillarRelation
	return tagged(KindPillarRelation, plain(n))
}

func (n Wangshuai) MarshalJSON() ([]byte, error) {
	type plain Wangshuai
	return tagged(KindWangshuai, plain(n))
}

func (n Xishen) MarshalJSON() ([]byte, error) {
	type plain Xishen
	return tagged(KindXishen, plain(n))
}

func (n Jishen) MarshalJSON() ([]byte, error) {
	type plain Jishen
	return tagged(KindJishen, plain(n))
}

func (n NayinEquals) MarshalJSON() ([]byte, error) {
	type plain NayinEquals
	return tagged(KindNayinEquals, plain(n))
}

func (n StemsSequence) MarshalJSON() ([]byte, error) {
	type plain StemsSequence
	return tagged(KindStemsSequence, plain(n))
}

func (n StarStage) MarshalJSON() ([]byte, error) {
	type plain StarStage
	return tagged(KindStarStage, plain(n))
}

func (n Gender) MarshalJSON() ([]byte, error) {
	type plain Gender
	return tagged(KindGender, plain(n))
}

type decodeFunc func([]byte) (Node, error)

// decodeLeaf decodes a payload straight into the concrete node type.
func decodeLeaf[T Node](raw []byte) (Node, error) {
	var n T
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	return n, nil
}

// decoders is the closed table of wire kinds. Adding a node type means
// adding a row here and a predicate in eval.go. Populated in init to
// break the initialization cycle through Unmarshal.
var decoders map[Kind]decodeFunc

func init() {
	decoders = map[Kind]decodeFunc{
		KindAll: decodeAll,
		KindAny: decodeAny,
		KindNot: decodeNot,

		KindPillarEquals:     decodeLeaf[PillarEquals],
		KindPillarIn:         decodeLeaf[PillarIn],
		KindMainStarInPillar: decodeLeaf[MainStarInPillar],
		KindTenGodsSub:       decodeLeaf[TenGodsSub],
		KindTenGodsTotal:     decodeLeaf[TenGodsTotal],
		KindBranchesCount:    decodeLeaf[BranchesCount],
		KindElementTotal:     decodeLeaf[ElementTotal],
		KindDeitiesInPillar:  decodeLeaf[DeitiesInPillar],
		KindDeitiesInAny:     decodeLeaf[DeitiesInAny],
		KindPillarRelation:   decodeLeaf[PillarRelation],
		KindWangshuai:        decodeLeaf[Wangshuai],
		KindXishen:           decodeLeaf[Xishen],
		KindJishen:           decodeLeaf[Jishen],
		KindNayinEquals:      decodeLeaf[NayinEquals],
		KindStemsSequence:    decodeLeaf[StemsSequence],
		KindStarStage:        decodeLeaf[StarStage],
		KindGender:           decodeLeaf[Gender],
	}
}

func decodeAll(raw []byte) (Node, error) {
	kids, err := decodeChildren(raw)
	if err != nil {
		return nil, err
	}
	return All{Children: kids}, nil
}

func decodeAny(raw []byte) (Node, error) {
	kids, err := decodeChildren(raw)
	if err != nil {
		return nil, err
	}
	return Any{Children: kids}, nil
}

func decodeNot(raw []byte) (Node, error) {
	var payload struct {
		Child json.RawMessage `json:"child"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if len(payload.Child) == 0 {
		return nil, errors.New("condition: not node has no child")
	}
	child, err := Unmarshal(payload.Child)
	if err != nil {
		return nil, err
	}
	return Not{Child: child}, nil
}

func decodeChildren(raw []byte) ([]Node, error) {
	var payload struct {
		Children []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if len(payload.Children) == 0 {
		return nil, errors.New("condition: combinator has no children")
	}
	kids := make([]Node, len(payload.Children))
	for i, c := range payload.Children {
		n, err := Unmarshal(c)
		if err != nil {
			return nil, err
		}
		kids[i] = n
	}
	return kids, nil
}
