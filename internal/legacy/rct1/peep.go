package rct1

import "fmt"

type PeepSpriteType uint8

const (
	SpriteNormal PeepSpriteType = iota
	SpriteHandyman
	SpriteMechanic
	SpriteSecurity
	SpriteEntertainerPanda
	SpriteEntertainerTiger
	SpriteEntertainerElephant
	SpriteEntertainerRoman
	SpriteEntertainerGorilla
	SpriteEntertainerSnowman
	SpriteEntertainerKnight
	SpriteEntertainerAstronaut
	SpriteIceCream
	SpriteChips
	SpriteBurger
	SpriteDrink
	SpriteBalloon
	SpriteCandyfloss
	SpriteUmbrella
	SpritePizza
	SpriteSecurityAlt
	SpritePopcorn
	SpriteArmsCrossed
	SpriteHeadDown
	SpriteNauseous
	SpriteVeryNauseous
	SpriteRequireToilet
	SpriteHat
	SpriteHotDog
	SpriteTentacle
	SpriteToffeeApple
	SpriteDoughnut
	SpriteCoffee
	SpriteChicken
	SpriteLemonade
	spriteCount
)

var spriteNames = [...]string{
	"normal", "handyman", "mechanic", "security", "entertainer_panda",
	"entertainer_tiger", "entertainer_elephant", "entertainer_roman",
	"entertainer_gorilla", "entertainer_snowman", "entertainer_knight",
	"entertainer_astronaut", "ice_cream", "chips", "burger", "drink", "balloon",
	"candyfloss", "umbrella", "pizza", "security_alt", "popcorn", "arms_crossed",
	"head_down", "nauseous", "very_nauseous", "require_toilet", "hat", "hot_dog",
	"tentacle", "toffee_apple", "doughnut", "coffee", "chicken", "lemonade",
}

func (p PeepSpriteType) String() string {
	if int(p) < len(spriteNames) {
		return spriteNames[p]
	}
	return fmt.Sprintf("sprite_%d", uint8(p))
}

// GetPeepSpriteType maps an RCT1 peep sprite. The two games share the order
// up to lemonade; anything later becomes Normal.
func GetPeepSpriteType(t uint8) PeepSpriteType {
	if t >= uint8(spriteCount) {
		warnf("unsupported RCT1 peep sprite type: %d", t)
		return SpriteNormal
	}
	return PeepSpriteType(t)
}
