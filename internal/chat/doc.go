// Package chat — модель входящего сообщения от игрового бота и его
// нормализация:
//   - Event — неизменяемый снимок одного сообщения (текст, отправитель,
//     ряды кнопок, медиа, признак редактирования);
//   - Button — подпись кнопки + непрозрачный токен действия;
//   - StripMessage/Normalize/FlatButtons — приведение текста к виду для
//     сопоставления по подстрокам и «сплющивание» клавиатуры;
//   - Transport — то, что бот ожидает от сессии чата (отправка текста,
//     нажатие inline-кнопки, mark-read, загрузка медиа).
//
// Кнопки живут ровно столько, сколько живёт событие: токен из старого
// сообщения нажимать нельзя.
package chat
