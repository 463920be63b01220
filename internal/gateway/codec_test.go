package gateway

import (
	"errors"
	"reflect"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/EgorLis/tgfarm/internal/chat"
)

func TestUpdateFrameRoundTrip(t *testing.T) {
	ev := &chat.Event{
		ID:       42,
		ChatID:   -100123,
		SenderID: 777,
		Text:     "На пути у вас встретился волк",
		Rows: [][]chat.Button{
			{{Label: "🔪 Атаковать", Token: []byte{0x01, 0x02}}, {Label: "🏛 В город"}},
			{{Label: "✅Да", Token: []byte("yes")}},
		},
		HasMedia: true,
		Edited:   true,
	}
	data, err := EncodeMessage(&Message{Update: ev})
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeMessage(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Response != nil || got.Update == nil {
		t.Fatalf("unexpected frame: %+v", got)
	}
	if !reflect.DeepEqual(got.Update, ev) {
		t.Fatalf("event mismatch:\n got %+v\nwant %+v", got.Update, ev)
	}
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	b, err := EncodeRequest(&Request{Seq: 7, Method: MethodSendMessage, Peer: 5, Text: "/buttons"})
	if err != nil {
		t.Fatal(err)
	}
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendString(b, "future")
	b = protowire.AppendTag(b, 100, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 1)

	r, err := DecodeRequest(b)
	if err != nil {
		t.Fatal(err)
	}
	if r.Seq != 7 || r.Method != MethodSendMessage || r.Peer != 5 || r.Text != "/buttons" {
		t.Fatalf("request = %+v", r)
	}
}

func TestDecodeMalformed(t *testing.T) {
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	b = protowire.AppendVarint(b, 50) // длина больше буфера
	if _, err := DecodeMessage(b); !errors.Is(err, errBadFrame) {
		t.Fatalf("expected errBadFrame, got %v", err)
	}
}

func TestEmptyResponseKeepsPresence(t *testing.T) {
	data, err := EncodeMessage(&Message{Response: &Response{}})
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeMessage(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Response == nil || got.Update != nil {
		t.Fatalf("frame = %+v", got)
	}
}

func TestRequestFieldNumbers(t *testing.T) {
	b, err := EncodeRequest(&Request{Seq: 3, Method: MethodMarkRead, Peer: -7, ButtonToken: []byte{9}})
	if err != nil {
		t.Fatal(err)
	}
	seen := map[protowire.Number]bool{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			t.Fatalf("bad tag: %v", protowire.ParseError(n))
		}
		b = b[n:]
		seen[num] = true
		if num == 8 && typ != protowire.BytesType {
			t.Fatalf("button_token wire type = %v", typ)
		}
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			t.Fatalf("bad value: %v", protowire.ParseError(m))
		}
		b = b[m:]
	}
	for _, num := range []protowire.Number{1, 3, 4, 8} {
		if !seen[num] {
			t.Errorf("field %d missing", num)
		}
	}
	if seen[2] || seen[6] {
		t.Errorf("zero fields encoded: %v", seen)
	}
}

func TestMethodString(t *testing.T) {
	if MethodPressButton.String() != "press_button" || Method(77).String() != "method(77)" {
		t.Fatal("unexpected method names")
	}
}
