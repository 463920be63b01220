package gateway

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/EgorLis/tgfarm/internal/chat"
)

type Method uint32

const (
	MethodUnknown Method = iota
	MethodGetMe
	MethodResolvePeer
	MethodSendMessage
	MethodPressButton
	MethodMarkRead
	MethodDownloadMedia
)

func (m Method) String() string {
	switch m {
	case MethodGetMe:
		return "get_me"
	case MethodResolvePeer:
		return "resolve_peer"
	case MethodSendMessage:
		return "send_message"
	case MethodPressButton:
		return "press_button"
	case MethodMarkRead:
		return "mark_read"
	case MethodDownloadMedia:
		return "download_media"
	default:
		return fmt.Sprintf("method(%d)", uint32(m))
	}
}

// Request — запрос клиента к мосту сессии.
type Request struct {
	Seq         uint32
	Token       string
	Method      Method
	Peer        int64
	MessageID   int64
	Text        string
	Username    string
	ButtonToken []byte
}

// Response — ответ моста на запрос с тем же Seq.
type Response struct {
	Seq          uint32
	Error        string
	PeerID       int64
	PeerUsername string
	Media        []byte
}

// Message — входящий кадр: либо ответ, либо новое/отредактированное сообщение.
type Message struct {
	Response *Response
	Update   *chat.Event
}

var errBadFrame = errors.New("gateway: malformed frame")

// ========================= schema =========================

const bridgePackage = "tgfarm.bridge"

// bridgeFile повторяет bridge.proto.
func bridgeFile() *descriptorpb.FileDescriptorProto {
	type T = descriptorpb.FieldDescriptorProto_Type
	const (
		u32  = descriptorpb.FieldDescriptorProto_TYPE_UINT32
		i64  = descriptorpb.FieldDescriptorProto_TYPE_INT64
		str  = descriptorpb.FieldDescriptorProto_TYPE_STRING
		byts = descriptorpb.FieldDescriptorProto_TYPE_BYTES
		bl   = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	)
	field := func(name string, num int32, typ T) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(name),
			Number: proto.Int32(num),
			Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:   typ.Enum(),
		}
	}
	embed := func(name string, num int32, msg string, repeated bool) *descriptorpb.FieldDescriptorProto {
		f := field(name, num, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
		f.TypeName = proto.String("." + bridgePackage + "." + msg)
		if repeated {
			f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
		}
		return f
	}
	message := func(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
		return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
	}

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("tgfarm/bridge.proto"),
		Package: proto.String(bridgePackage),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			message("Request",
				field("seq", 1, u32),
				field("token", 2, str),
				field("method", 3, u32),
				field("peer", 4, i64),
				field("message_id", 5, i64),
				field("text", 6, str),
				field("username", 7, str),
				field("button_token", 8, byts),
			),
			message("Response",
				field("seq", 1, u32),
				field("error", 2, str),
				field("peer_id", 3, i64),
				field("peer_username", 4, str),
				field("media", 5, byts),
			),
			message("Button",
				field("label", 1, str),
				field("token", 2, byts),
			),
			message("Row",
				embed("buttons", 1, "Button", true),
			),
			message("Event",
				field("message_id", 1, i64),
				field("chat_id", 2, i64),
				field("sender_id", 3, i64),
				field("text", 4, str),
				embed("rows", 5, "Row", true),
				field("media", 6, bl),
				field("edited", 7, bl),
				field("outgoing", 8, bl),
			),
			message("Frame",
				embed("response", 1, "Response", false),
				embed("update", 2, "Event", false),
			),
		},
	}
}

var (
	requestDesc  protoreflect.MessageDescriptor
	responseDesc protoreflect.MessageDescriptor
	frameDesc    protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(bridgeFile(), new(protoregistry.Files))
	if err != nil {
		panic(fmt.Sprintf("gateway: bridge schema: %v", err))
	}
	msgs := fd.Messages()
	requestDesc = msgs.ByName("Request")
	responseDesc = msgs.ByName("Response")
	frameDesc = msgs.ByName("Frame")
}

// ========================= field access =========================

func fieldOf(m protoreflect.Message, name string) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(protoreflect.Name(name))
}

func setInt(m protoreflect.Message, name string, v int64) {
	if v != 0 {
		m.Set(fieldOf(m, name), protoreflect.ValueOfInt64(v))
	}
}

func setUint(m protoreflect.Message, name string, v uint32) {
	if v != 0 {
		m.Set(fieldOf(m, name), protoreflect.ValueOfUint32(v))
	}
}

func setString(m protoreflect.Message, name, v string) {
	if v != "" {
		m.Set(fieldOf(m, name), protoreflect.ValueOfString(v))
	}
}

func setBytes(m protoreflect.Message, name string, v []byte) {
	if len(v) > 0 {
		m.Set(fieldOf(m, name), protoreflect.ValueOfBytes(v))
	}
}

func setBool(m protoreflect.Message, name string, v bool) {
	if v {
		m.Set(fieldOf(m, name), protoreflect.ValueOfBool(v))
	}
}

func getInt(m protoreflect.Message, name string) int64 { return m.Get(fieldOf(m, name)).Int() }

func getUint(m protoreflect.Message, name string) uint32 {
	return uint32(m.Get(fieldOf(m, name)).Uint())
}

func getString(m protoreflect.Message, name string) string { return m.Get(fieldOf(m, name)).String() }

func getBytes(m protoreflect.Message, name string) []byte {
	return append([]byte(nil), m.Get(fieldOf(m, name)).Bytes()...)
}

func getBool(m protoreflect.Message, name string) bool { return m.Get(fieldOf(m, name)).Bool() }

// sub возвращает вложенное сообщение или nil, если поле не задано.
func sub(m protoreflect.Message, name string) protoreflect.Message {
	fd := fieldOf(m, name)
	if !m.Has(fd) {
		return nil
	}
	return m.Get(fd).Message()
}

// ========================= encode =========================

func EncodeRequest(r *Request) ([]byte, error) {
	m := dynamicpb.NewMessage(requestDesc)
	setUint(m, "seq", r.Seq)
	setString(m, "token", r.Token)
	setUint(m, "method", uint32(r.Method))
	setInt(m, "peer", r.Peer)
	setInt(m, "message_id", r.MessageID)
	setString(m, "text", r.Text)
	setString(m, "username", r.Username)
	setBytes(m, "button_token", r.ButtonToken)
	return proto.Marshal(m)
}

func EncodeMessage(msg *Message) ([]byte, error) {
	m := dynamicpb.NewMessage(frameDesc)
	if msg.Response != nil {
		fillResponse(m.Mutable(fieldOf(m, "response")).Message(), msg.Response)
	}
	if msg.Update != nil {
		fillEvent(m.Mutable(fieldOf(m, "update")).Message(), msg.Update)
	}
	return proto.Marshal(m)
}

func fillResponse(m protoreflect.Message, r *Response) {
	setUint(m, "seq", r.Seq)
	setString(m, "error", r.Error)
	setInt(m, "peer_id", r.PeerID)
	setString(m, "peer_username", r.PeerUsername)
	setBytes(m, "media", r.Media)
}

func fillEvent(m protoreflect.Message, ev *chat.Event) {
	setInt(m, "message_id", ev.ID)
	setInt(m, "chat_id", ev.ChatID)
	setInt(m, "sender_id", ev.SenderID)
	setString(m, "text", ev.Text)
	if len(ev.Rows) > 0 {
		rows := m.Mutable(fieldOf(m, "rows")).List()
		for _, row := range ev.Rows {
			rv := rows.NewElement()
			buttons := rv.Message().Mutable(fieldOf(rv.Message(), "buttons")).List()
			for _, btn := range row {
				bv := buttons.NewElement()
				setString(bv.Message(), "label", btn.Label)
				setBytes(bv.Message(), "token", btn.Token)
				buttons.Append(bv)
			}
			rows.Append(rv)
		}
	}
	setBool(m, "media", ev.HasMedia)
	setBool(m, "edited", ev.Edited)
	setBool(m, "outgoing", ev.Outgoing)
}

// ========================= decode =========================

func unmarshal(b []byte, desc protoreflect.MessageDescriptor) (*dynamicpb.Message, error) {
	m := dynamicpb.NewMessage(desc)
	if err := proto.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadFrame, err)
	}
	return m, nil
}

func DecodeRequest(b []byte) (*Request, error) {
	m, err := unmarshal(b, requestDesc)
	if err != nil {
		return nil, err
	}
	return &Request{
		Seq:         getUint(m, "seq"),
		Token:       getString(m, "token"),
		Method:      Method(getUint(m, "method")),
		Peer:        getInt(m, "peer"),
		MessageID:   getInt(m, "message_id"),
		Text:        getString(m, "text"),
		Username:    getString(m, "username"),
		ButtonToken: getBytes(m, "button_token"),
	}, nil
}

func DecodeMessage(b []byte) (*Message, error) {
	m, err := unmarshal(b, frameDesc)
	if err != nil {
		return nil, err
	}
	out := &Message{}
	if r := sub(m, "response"); r != nil {
		out.Response = &Response{
			Seq:          getUint(r, "seq"),
			Error:        getString(r, "error"),
			PeerID:       getInt(r, "peer_id"),
			PeerUsername: getString(r, "peer_username"),
			Media:        getBytes(r, "media"),
		}
	}
	if u := sub(m, "update"); u != nil {
		out.Update = readEvent(u)
	}
	return out, nil
}

func readEvent(m protoreflect.Message) *chat.Event {
	ev := &chat.Event{
		ID:       getInt(m, "message_id"),
		ChatID:   getInt(m, "chat_id"),
		SenderID: getInt(m, "sender_id"),
		Text:     getString(m, "text"),
		HasMedia: getBool(m, "media"),
		Edited:   getBool(m, "edited"),
		Outgoing: getBool(m, "outgoing"),
	}
	rows := m.Get(fieldOf(m, "rows")).List()
	for i := 0; i < rows.Len(); i++ {
		rm := rows.Get(i).Message()
		buttons := rm.Get(fieldOf(rm, "buttons")).List()
		row := make([]chat.Button, 0, buttons.Len())
		for j := 0; j < buttons.Len(); j++ {
			bm := buttons.Get(j).Message()
			row = append(row, chat.Button{Label: getString(bm, "label"), Token: getBytes(bm, "token")})
		}
		ev.Rows = append(ev.Rows, row)
	}
	return ev
}
