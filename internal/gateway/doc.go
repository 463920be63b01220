// Package gateway реализует WebSocket-клиент моста сессии чата. Мост держит
// пользовательскую сессию мессенджера (авторизация, доставка, переподключения
// на стороне мессенджера) и отдаёт её боту по WebSocket кадрами в protobuf
// wire format (см. codec.go).
//
// Клиент умеет подключаться, отправлять Request и получать Message,
// автоматически реконнектиться с экспоненциальным backoff, а также
// предоставляет высокоуровневые методы chat.Transport:
//
//   - Me, ResolvePeer, SendText, PressButton, MarkRead, DownloadMedia.
//
// События (колбэки поля структуры):
//   - OnConnecting, OnConnected, OnUpdate, OnDisconnected, OnError, OnFatal.
//
// Безопасность и устойчивость:
//   - Запись в сокет сериализована (мьютекс + write-deadline).
//   - Keep-alive: ping/pong с read-deadline. При обрыве — реконнект и сброс
//     ожидающих колбэков с ошибкой. Если реконнект не удался Retries раз
//     подряд, вызывается OnFatal и клиент останавливается.
//
// Пример:
//
//	c := gateway.New(gateway.Config{URL: "ws://127.0.0.1:8765/session"}, log)
//	c.OnUpdate = func(ev chat.Event) { fmt.Println(ev.Text) }
//	if err := c.Connect(ctx); err != nil { log.Fatal(err) }
//	defer c.Disconnect()
//
//	game, _ := c.ResolvePeer(ctx, "rf_telegram_bot")
//	_ = c.SendText(ctx, game.ID, "/buttons")
package gateway
