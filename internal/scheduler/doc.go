// Package scheduler — темп и жизненный цикл бота:
//   - Flags — пауза, запрос выхода (с причиной) и фатальная ошибка транспорта;
//   - Throttle — случайная короткая пауза перед каждым исходящим действием;
//   - Sleep — длинный кулдаун, прерываемый отменой контекста;
//   - Window — необязательный лимит времени работы, отсчитывается от Loop.Run;
//   - Loop — очередь событий с одним потребителем: обработчики выполняются
//     по одному, в порядке поступления.
//
// Окно проверяется раз за итерацию цикла, а не вытесняюще: кулдаун внутри
// обработчика может пережить дедлайн на свою длительность. Запрос выхода,
// наоборот, прерывает кулдаун сразу.
package scheduler
