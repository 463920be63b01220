package trainer

import (
	"context"
	"strings"

	"github.com/EgorLis/tgfarm/internal/chat"
	"github.com/EgorLis/tgfarm/internal/game"
	"github.com/EgorLis/tgfarm/internal/registry"
)

// initialize — по набору кнопок понимаем, где находимся.
func (t *Trainer) initialize(ctx context.Context, ev chat.Event) {
	buttons := chat.FlatButtons(ev)
	if len(buttons) == 0 {
		t.log.Warn("no buttons, initialization skipped")
		return
	}
	has := func(marker string) bool {
		for _, b := range buttons {
			if strings.Contains(b.Label, marker) {
				return true
			}
		}
		return false
	}
	switch {
	case has(game.Heal):
		t.inTown(ctx, ev)
	case has(game.ToFightZone):
		t.goToFightZone(ctx, ev)
	case has(game.Attack):
		t.startFighting(ctx, ev)
	case has(game.ToDungeons):
		t.goToDungeon(ctx, ev)
	default:
		t.log.Warn("initialization: unknown keyboard", "buttons", chat.Labels(buttons))
	}
}

func (t *Trainer) goToFightZone(ctx context.Context, ev chat.Event) {
	t.remember(registry.LocationChoice, ev)
	if t.press(ctx, registry.LocationChoice, game.ToFightZone) {
		t.log.Info("going to fight zone")
	}
}

func (t *Trainer) startFighting(ctx context.Context, ev chat.Event) {
	t.remember(registry.FightZone, ev)

	energy, err := game.EnergyLevel(ev.Text)
	if err != nil {
		t.log.Debug("energy level unknown", "err", err)
	} else if energy <= 0 {
		t.log.Info("not enough energy", "energy", energy)
		if !t.cooldown(ctx) {
			return
		}
	}
	if t.press(ctx, registry.FightZone, game.Attack) {
		t.log.Info("fight started")
	}
}

// searchNext — дальше искать монстра, либо в город при низком HP, либо
// ждать энергию. Нераспознанный показатель считается неизвестным.
func (t *Trainer) searchNext(ctx context.Context, ev chat.Event) {
	hp, hpErr := game.HPLevel(ev.Text)
	energy, energyErr := game.EnergyLevel(ev.Text)

	switch {
	case hpErr == nil && hp <= t.cfg.MinimumHPLevel:
		t.log.Info("low hp, returning to town", "hp", hp)
		t.press(ctx, registry.FightZone, game.ToTown)
	case energyErr == nil && energy <= 0:
		t.log.Info("not enough energy", "energy", energy)
		if t.cooldown(ctx) {
			t.press(ctx, registry.FightZone, game.FindMonster)
		}
	default:
		t.press(ctx, registry.FightZone, game.FindMonster)
	}
}

func (t *Trainer) fightWon(ctx context.Context, ev chat.Event) {
	t.stats.Inc("wins")
	t.searchNext(ctx, ev)
}

func (t *Trainer) fightLost(_ context.Context, _ chat.Event) {
	t.stats.Inc("defeats")
	t.log.Info("fight lost, waiting for revival")
}

func (t *Trainer) inTown(ctx context.Context, ev chat.Event) {
	t.remember(registry.Town, ev)
	if t.press(ctx, registry.Town, game.Heal) {
		t.log.Info("healing")
	}
}

func (t *Trainer) hpRecovered(ctx context.Context, ev chat.Event) {
	if t.mode == ModeFarm && t.cfg.FarmDungeons {
		t.pickDungeon(ctx, ev)
		return
	}
	t.goToLocations(ctx, ev)
}

func (t *Trainer) goToLocations(ctx context.Context, _ chat.Event) {
	if t.press(ctx, registry.Town, game.ToLocations) {
		t.log.Info("going to locations")
	}
}

func (t *Trainer) pickDungeon(ctx context.Context, _ chat.Event) {
	if t.press(ctx, registry.Town, game.ToDungeons) {
		t.log.Info("going to dungeons")
	}
}

func (t *Trainer) goToDungeon(ctx context.Context, ev chat.Event) {
	t.remember(registry.Dungeon, ev)
	if t.press(ctx, registry.Dungeon, game.ToDungeons) {
		t.log.Info("entering dungeon")
	}
}

func (t *Trainer) chooseDungeon(ctx context.Context, _ chat.Event) {
	if err := t.act(ctx, t.cfg.DungeonCommand); err != nil {
		t.actionFailed(err)
	}
}

// startDungeon подтверждает запуск inline-кнопкой «✅Да» этого же сообщения.
func (t *Trainer) startDungeon(ctx context.Context, ev chat.Event) {
	for _, b := range chat.FlatButtons(ev) {
		if b.Label != game.ConfirmLabel || len(b.Token) == 0 {
			continue
		}
		t.log.Info("confirming dungeon")
		if err := t.click(ctx, ev, b); err != nil {
			t.actionFailed(err)
		}
		return
	}
	t.log.Warn("confirm button not found or not inline", "label", game.ConfirmLabel)
}

// relaxing — после данжа отдыхаем и просим свежую клавиатуру.
func (t *Trainer) relaxing(ctx context.Context, _ chat.Event) {
	t.log.Info("resting")
	if !t.cooldown(ctx) {
		return
	}
	if err := t.act(ctx, game.ButtonsCommand); err != nil {
		t.actionFailed(err)
	}
}

// energyDepleted — ждём энергию и снова ищем монстра. Если кнопка поиска
// ещё не известна, просим клавиатуру.
func (t *Trainer) energyDepleted(ctx context.Context, _ chat.Event) {
	t.log.Info("energy depleted")
	if !t.cooldown(ctx) {
		return
	}
	if _, err := t.reg.FindByMarker(registry.FightZone, game.FindMonster); err == nil {
		t.press(ctx, registry.FightZone, game.FindMonster)
		return
	}
	if err := t.act(ctx, game.ButtonsCommand); err != nil {
		t.actionFailed(err)
	}
}

func (t *Trainer) energyRecovered(ctx context.Context, _ chat.Event) {
	t.log.Info("energy recovered")
	if err := t.act(ctx, game.ButtonsCommand); err != nil {
		t.actionFailed(err)
	}
}

// resolveCaptcha — капчу решает человек: зовём его уведомлением.
func (t *Trainer) resolveCaptcha(ctx context.Context, ev chat.Event) {
	t.log.Info("resolve captcha")
	t.stats.Inc("captcha")

	nctx := context.WithoutCancel(ctx)
	if ev.HasMedia {
		img, err := t.tr.DownloadMedia(nctx, t.gameID(), ev.ID)
		if err != nil {
			t.log.Warn("captcha image", "err", err)
		} else {
			t.log.Info("captcha image downloaded", "bytes", len(img))
		}
	}
	if err := t.notifier.Notify(nctx, "", "captcha!"); err != nil {
		t.log.Warn("notify", "err", err)
	}
}

func (t *Trainer) skip(_ context.Context, ev chat.Event) {
	t.log.Debug("skip event", "message_id", ev.ID)
}
