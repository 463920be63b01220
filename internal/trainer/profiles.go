package trainer

import (
	"github.com/EgorLis/tgfarm/internal/dispatch"
	"github.com/EgorLis/tgfarm/internal/game"
)

// farmingTable — полный профиль: бои, данжи, капча, энергия.
// Порядок важен: инициализация раньше всего, что тоже приходит с кнопками.
func (t *Trainer) farmingTable() dispatch.Table {
	return dispatch.Table{
		{State: game.Initialization, Handle: t.initialize},
		{State: game.AtLocations, Handle: t.goToFightZone},
		{State: game.MonsterFound, Handle: t.startFighting},
		{State: game.MonsterNotFound, Handle: t.searchNext},
		{State: game.FightWon, Handle: t.fightWon},
		{State: game.InTown, Handle: t.inTown},
		{State: game.Revived, Handle: t.inTown},
		{State: game.HPRecovered, Handle: t.hpRecovered},
		{State: game.EnteringDungeonZone, Handle: t.goToDungeon},
		{State: game.ChooseDungeon, Handle: t.chooseDungeon},
		{State: game.ConfirmDungeon, Handle: t.startDungeon},
		{State: game.DungeonFinished, Handle: t.relaxing},
		{State: game.CaptchaChallenge, Handle: t.resolveCaptcha},
		{State: game.FightLost, Handle: t.fightLost},
		{State: game.EnergyDepleted, Handle: t.energyDepleted},
		{State: game.EnergyRecovered, Handle: t.energyRecovered},
	}
}

// runningTable — только основной цикл боя, без данжей и капчи.
func (t *Trainer) runningTable() dispatch.Table {
	return dispatch.Table{
		{State: game.AtLocations, Handle: t.goToFightZone},
		{State: game.MonsterFound, Handle: t.startFighting},
		{State: game.FightWon, Handle: t.fightWon},
		{State: game.InTown, Handle: t.inTown},
		{State: game.Revived, Handle: t.inTown},
		{State: game.HPRecovered, Handle: t.goToLocations},
	}
}
